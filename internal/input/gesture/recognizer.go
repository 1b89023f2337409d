package gesture

import (
	"errors"
	"sync"
	"time"

	"github.com/dshills/gesture/internal/component"
	"github.com/dshills/gesture/internal/event/topic"
	"github.com/dshills/gesture/internal/input/arbiter"
	"github.com/dshills/gesture/internal/input/pointer"
	"github.com/dshills/gesture/internal/logging"
)

// Session is the state of one gesture, from the down that opened it to the
// up, cancel or leave that closes it.
type Session struct {
	Pointer   pointer.ID
	StartX    float64
	StartY    float64
	StartTime time.Time
	X         float64
	Y         float64
	Time      time.Time

	// Committed is set once the recognizer has decided the stream is its
	// gesture.
	Committed bool

	limits map[string]int
}

// Delta returns the displacement from the start position.
func (s *Session) Delta() (dx, dy float64) {
	return s.X - s.StartX, s.Y - s.StartY
}

// Elapsed returns the time since the session started. It is never negative.
func (s *Session) Elapsed() time.Duration {
	if d := s.Time.Sub(s.StartTime); d > 0 {
		return d
	}
	return 0
}

// Limit returns the threshold value captured when the session started.
func (s *Session) Limit(name string) int {
	return s.limits[name]
}

func (s *Session) detail() Detail {
	dx, dy := s.Delta()
	return Detail{
		StartX:    s.StartX,
		StartY:    s.StartY,
		CurrentX:  s.X,
		CurrentY:  s.Y,
		DeltaX:    dx,
		DeltaY:    dy,
		Distance:  pointer.Distance(dx, dy),
		Direction: Classify(dx, dy),
		Elapsed:   s.Elapsed(),
	}
}

// behavior is implemented by concrete recognizers.
type behavior interface {
	move(s *Session)
	finish(s *Session, clean bool)
}

// Option configures a recognizer.
type Option func(*Recognizer)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Recognizer) {
		if l != nil {
			r.log = l
		}
	}
}

// OnRefused sets a hook called synchronously when the recognizer loses a
// capture request, with the reason.
func OnRefused(fn func(id pointer.ID, err error)) Option {
	return func(r *Recognizer) {
		r.onRefused = fn
	}
}

// Recognizer is the machinery shared by gesture recognizers: capture on
// down, session tracking, relay to observers and release on end.
//
// Pointer handling runs on the dispatching goroutine. Attributes may be
// set from any goroutine.
type Recognizer struct {
	component.Mixin

	kind      string
	arb       *arbiter.Arbiter
	log       *logging.Logger
	impl      behavior
	self      component.Node
	onRefused func(pointer.ID, error)

	mu    sync.Mutex
	attrs map[string]*attribute

	session *Session
	detach  []func()
}

func newRecognizer(kind string, arb *arbiter.Arbiter, self component.Node, impl behavior, opts []Option) *Recognizer {
	r := &Recognizer{
		Mixin: component.NewMixin(kind),
		kind:  kind,
		arb:   arb,
		log:   logging.Nop(),
		impl:  impl,
		self:  self,
		attrs: make(map[string]*attribute),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.WithComponent(kind).With("recognizer", r.ID())
	return r
}

// Attach installs the recognizer's pointer listeners. It is idempotent.
// Constructors attach automatically.
func (r *Recognizer) Attach() {
	if r.detach != nil {
		return
	}
	handlers := map[pointer.Kind]component.PointerListener{
		pointer.KindDown:   r.onDown,
		pointer.KindMove:   r.onMove,
		pointer.KindUp:     func(ev *pointer.Event) { r.onEnd(ev, true) },
		pointer.KindCancel: func(ev *pointer.Event) { r.onEnd(ev, false) },
		pointer.KindLeave:  func(ev *pointer.Event) { r.onEnd(ev, false) },
	}
	for _, kind := range []pointer.Kind{pointer.KindDown, pointer.KindMove, pointer.KindUp, pointer.KindCancel, pointer.KindLeave} {
		r.detach = append(r.detach, r.AddPointerListener(kind, handlers[kind]))
	}
}

// Detach removes the pointer listeners. A session in progress is abandoned
// without emitting and its capture released.
func (r *Recognizer) Detach() {
	for _, fn := range r.detach {
		fn()
	}
	r.detach = nil
	if s := r.session; s != nil {
		r.session = nil
		r.arb.Release(r, s.Pointer)
	}
}

// Active reports whether a gesture session is open.
func (r *Recognizer) Active() bool {
	return r.session != nil
}

// Session returns the open session, or nil.
func (r *Recognizer) Session() *Session {
	return r.session
}

// HandleRelay implements arbiter.Observer. Relayed events go through the
// normal handlers; a relayed down never opens a session.
func (r *Recognizer) HandleRelay(ev *pointer.Event) {
	switch ev.Kind {
	case pointer.KindDown:
		r.onDown(ev)
	case pointer.KindMove:
		r.onMove(ev)
	case pointer.KindUp:
		r.onEnd(ev, true)
	case pointer.KindCancel, pointer.KindLeave:
		r.onEnd(ev, false)
	}
}

func (r *Recognizer) onDown(ev *pointer.Event) {
	if r.session != nil || r.arb.IsRedispatched(ev) {
		return
	}
	if err := r.arb.TryCapture(r, ev.Pointer); err != nil {
		reason := "platform"
		if errors.Is(err, arbiter.ErrContention) {
			reason = "contention"
		}
		r.log.Debug("capture refused", "pointer", int(ev.Pointer), "reason", reason)
		if r.onRefused != nil {
			r.onRefused(ev.Pointer, err)
		}
		return
	}

	r.session = &Session{
		Pointer:   ev.Pointer,
		StartX:    ev.X,
		StartY:    ev.Y,
		StartTime: ev.Timestamp,
		X:         ev.X,
		Y:         ev.Y,
		Time:      ev.Timestamp,
		limits:    r.snapshot(),
	}
	r.log.Debug("session started", "pointer", int(ev.Pointer), "x", ev.X, "y", ev.Y)
	r.arb.Redispatch(r, ev)
}

func (r *Recognizer) onMove(ev *pointer.Event) {
	s := r.session
	if s == nil || ev.Pointer != s.Pointer {
		return
	}
	if !r.arb.IsOwnedBy(r, s.Pointer) {
		r.abandon()
		return
	}
	s.X, s.Y, s.Time = ev.X, ev.Y, ev.Timestamp
	r.impl.move(s)
	r.arb.Redispatch(r, ev)
}

func (r *Recognizer) onEnd(ev *pointer.Event, clean bool) {
	s := r.session
	if s == nil || ev.Pointer != s.Pointer {
		return
	}
	if !r.arb.IsOwnedBy(r, s.Pointer) {
		r.abandon()
		return
	}
	s.X, s.Y, s.Time = ev.X, ev.Y, ev.Timestamp
	r.impl.finish(s, clean)
	r.arb.Redispatch(r, ev)
	r.session = nil
	r.arb.Release(r, s.Pointer)
	r.log.Debug("session ended", "pointer", int(s.Pointer), "clean", clean, "committed", s.Committed)
}

// abandon closes a session whose capture was taken away, ending it as if
// the pointer had been cancelled.
func (r *Recognizer) abandon() {
	s := r.session
	r.session = nil
	r.log.Warn("capture lost mid-gesture", "pointer", int(s.Pointer))
	r.impl.finish(s, false)
}

func (r *Recognizer) snapshot() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	limits := make(map[string]int, len(r.attrs))
	for name, a := range r.attrs {
		limits[name] = a.value
	}
	return limits
}

// emit bubbles a gesture event from the recognizer.
func (r *Recognizer) emit(t topic.Topic, s *Session, d Detail) {
	component.Emit(r.self, Event{
		Type:    t,
		Pointer: s.Pointer,
		Source:  r.self,
		Target:  r.ActualTarget(),
		Detail:  d,
		Time:    s.Time,
	})
}
