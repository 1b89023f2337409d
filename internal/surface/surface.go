package surface

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/gesture/internal/component"
	"github.com/dshills/gesture/internal/event"
	"github.com/dshills/gesture/internal/input/arbiter"
	"github.com/dshills/gesture/internal/input/pointer"
	"github.com/dshills/gesture/internal/logging"
)

// Errors returned by the capture primitive.
var (
	// ErrInvalidPointer is returned when capturing a pointer that is not down.
	ErrInvalidPointer = errors.New("pointer is not active")

	// ErrNotAttached is returned when the capturing component is not in the tree.
	ErrNotAttached = errors.New("component is not attached to the surface")
)

// Stats contains dispatch counters.
type Stats struct {
	Dispatched    uint64
	Untargeted    uint64
	WheelBlocked  uint64
	GestureEvents uint64
	PublishErrors uint64
}

// Surface routes pointer events through a component tree.
type Surface struct {
	root component.Node

	down     map[pointer.ID]bool
	captures map[pointer.ID]component.Node
	locked   bool

	bus event.Bus
	ctx context.Context
	log *logging.Logger

	stats Stats
}

// Option configures a Surface.
type Option func(*Surface)

// WithBus forwards gesture events that reach the root to bus.
func WithBus(bus event.Bus) Option {
	return func(s *Surface) {
		s.bus = bus
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Surface) {
		if l != nil {
			s.log = l.WithComponent("surface")
		}
	}
}

// WithContext sets the context used for bus publishes.
func WithContext(ctx context.Context) Option {
	return func(s *Surface) {
		s.ctx = ctx
	}
}

type sinkSetter interface {
	SetSink(fn func(component.Event))
}

// New creates a surface for the tree rooted at root.
func New(root component.Node, opts ...Option) (*Surface, error) {
	if root == nil {
		return nil, errors.New("surface: nil root")
	}
	if root.Parent() != nil {
		return nil, fmt.Errorf("surface: %s is not a root", root.Name())
	}

	s := &Surface{
		root:     root,
		down:     make(map[pointer.ID]bool),
		captures: make(map[pointer.ID]component.Node),
		ctx:      context.Background(),
		log:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if ss, ok := root.(sinkSetter); ok {
		ss.SetSink(s.publish)
	}
	return s, nil
}

// Root returns the root component.
func (s *Surface) Root() component.Node {
	return s.root
}

func (s *Surface) publish(ev component.Event) {
	s.stats.GestureEvents++
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(s.ctx, ev); err != nil {
		s.stats.PublishErrors++
		s.log.Error("publishing gesture event", "topic", ev.EventTopic().String(), "error", err)
	}
}

// Dispatch routes ev to its target and bubbles it to the root. It reports
// whether any component was targeted.
func (s *Surface) Dispatch(ev pointer.Event) bool {
	if ev.Kind == pointer.KindWheel && s.locked {
		s.stats.WheelBlocked++
		return false
	}
	if ev.Kind == pointer.KindDown {
		s.down[ev.Pointer] = true
	}

	target, ok := s.captures[ev.Pointer]
	if !ok {
		target = component.HitTest(s.root, ev.X, ev.Y)
	}

	if ev.Kind.IsTerminal() {
		defer func() {
			delete(s.down, ev.Pointer)
			delete(s.captures, ev.Pointer)
		}()
	}

	if target == nil {
		s.stats.Untargeted++
		return false
	}

	s.stats.Dispatched++
	component.DispatchPointer(target, &ev)
	return true
}

// IsDown reports whether pointer id is between down and a terminal event.
func (s *Surface) IsDown(id pointer.ID) bool {
	return s.down[id]
}

// SetPointerCapture routes the rest of pointer id's events to c.
func (s *Surface) SetPointerCapture(c arbiter.Component, id pointer.ID) error {
	if !s.down[id] {
		return fmt.Errorf("capture pointer %d: %w", id, ErrInvalidPointer)
	}
	node := component.Find(s.root, c.ID())
	if node == nil {
		return fmt.Errorf("capture pointer %d: %w", id, ErrNotAttached)
	}
	s.captures[id] = node
	return nil
}

// ReleasePointerCapture undoes SetPointerCapture when c holds the capture.
func (s *Surface) ReleasePointerCapture(c arbiter.Component, id pointer.ID) {
	if n, ok := s.captures[id]; ok && n.ID() == c.ID() {
		delete(s.captures, id)
	}
}

// CaptureTarget returns the component holding capture of id.
func (s *Surface) CaptureTarget(id pointer.ID) (component.Node, bool) {
	n, ok := s.captures[id]
	return n, ok
}

// SetScrollLocked implements arbiter.ScrollLocker.
func (s *Surface) SetScrollLocked(locked bool) {
	if s.locked != locked {
		s.log.Debug("scroll lock changed", "locked", locked)
	}
	s.locked = locked
}

// ScrollLocked reports whether wheel events are being suppressed.
func (s *Surface) ScrollLocked() bool {
	return s.locked
}

// Stats returns dispatch counters.
func (s *Surface) Stats() Stats {
	return s.stats
}
