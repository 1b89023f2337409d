package arbiter

import (
	"fmt"
	"sync"

	"github.com/dshills/gesture/internal/input/pointer"
	"github.com/dshills/gesture/internal/logging"
)

// Component is anything that can own a pointer.
type Component interface {
	ID() string
}

// Observer receives relayed copies of pointer events it does not own.
// The event is marked; relaying it again is a no-op.
type Observer interface {
	HandleRelay(ev *pointer.Event)
}

// Capturer is the host's exclusive-capture primitive. SetPointerCapture may
// fail or panic; either is treated as a refused capture.
type Capturer interface {
	SetPointerCapture(c Component, id pointer.ID) error
	ReleasePointerCapture(c Component, id pointer.ID)
}

// ScrollLocker suppresses ambient scrolling while locked.
type ScrollLocker interface {
	SetScrollLocked(locked bool)
}

// Stats contains arbitration counters.
type Stats struct {
	Captures        uint64
	Contentions     uint64
	CaptureFailures uint64
	Relays          uint64
}

type record struct {
	owner   Component
	refused []Observer
}

type observerEntry struct {
	id       uint64
	observer Observer
}

// Arbiter is the pointer capture registry.
type Arbiter struct {
	mu sync.Mutex

	records   map[pointer.ID]*record
	observers map[pointer.ID][]observerEntry
	nextObs   uint64

	capturer Capturer
	locker   ScrollLocker
	locked   bool

	log   *logging.Logger
	stats Stats
}

// Option configures an Arbiter.
type Option func(*Arbiter)

// WithCapturer sets the host capture primitive.
func WithCapturer(c Capturer) Option {
	return func(a *Arbiter) {
		a.capturer = c
	}
}

// WithScrollLocker sets the scroll lock target.
func WithScrollLocker(l ScrollLocker) Option {
	return func(a *Arbiter) {
		a.locker = l
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(a *Arbiter) {
		if l != nil {
			a.log = l.WithComponent("arbiter")
		}
	}
}

// New creates an Arbiter.
func New(opts ...Option) *Arbiter {
	a := &Arbiter{
		records:   make(map[pointer.ID]*record),
		observers: make(map[pointer.ID][]observerEntry),
		log:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RequestCapture asks for exclusive ownership of id on behalf of c.
// It succeeds when id is unowned and the host grants capture, or when c
// already owns id.
func (a *Arbiter) RequestCapture(c Component, id pointer.ID) bool {
	return a.TryCapture(c, id) == nil
}

// TryCapture is RequestCapture reporting why a request was refused.
// The error is a *CaptureError wrapping ErrContention or ErrPlatformCapture.
// A refusal never changes ownership; a refused Observer is enrolled on
// id's relay list until id is released.
func (a *Arbiter) TryCapture(c Component, id pointer.ID) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if rec, ok := a.records[id]; ok {
		if rec.owner.ID() == c.ID() {
			return nil
		}
		a.stats.Contentions++
		if obs, ok := c.(Observer); ok && !rec.enrolled(c) {
			rec.refused = append(rec.refused, obs)
		}
		a.log.Warn("pointer capture contention",
			"pointer", int(id), "owner", rec.owner.ID(), "claimant", c.ID())
		return &CaptureError{Pointer: id, Claimant: c.ID(), Owner: rec.owner.ID(), Err: ErrContention}
	}

	if err := a.platformCapture(c, id); err != nil {
		a.stats.CaptureFailures++
		a.log.Warn("platform pointer capture failed",
			"pointer", int(id), "claimant", c.ID(), "error", err)
		return &CaptureError{Pointer: id, Claimant: c.ID(), Err: fmt.Errorf("%w: %v", ErrPlatformCapture, err)}
	}

	a.records[id] = &record{owner: c}
	a.stats.Captures++
	a.setLocked(true)
	return nil
}

func (a *Arbiter) platformCapture(c Component, id pointer.ID) (err error) {
	if a.capturer == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return a.capturer.SetPointerCapture(c, id)
}

func (a *Arbiter) platformRelease(c Component, id pointer.ID) {
	if a.capturer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			a.log.Warn("platform pointer release panicked", "pointer", int(id), "panic", r)
		}
	}()
	a.capturer.ReleasePointerCapture(c, id)
}

func (r *record) enrolled(c Component) bool {
	for _, o := range r.refused {
		if oc, ok := o.(Component); ok && oc.ID() == c.ID() {
			return true
		}
	}
	return false
}

// setLocked must be called with a.mu held.
func (a *Arbiter) setLocked(locked bool) {
	if a.locked == locked {
		return
	}
	a.locked = locked
	if a.locker != nil {
		a.locker.SetScrollLocked(locked)
	}
}

// Release gives up c's capture of id. It is a no-op unless c owns id.
func (a *Arbiter) Release(c Component, id pointer.ID) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, ok := a.records[id]
	if !ok || rec.owner.ID() != c.ID() {
		return
	}
	delete(a.records, id)
	delete(a.observers, id)
	a.platformRelease(rec.owner, id)
	if len(a.records) == 0 {
		a.setLocked(false)
	}
}

// IsOwnedBy reports whether c owns id.
func (a *Arbiter) IsOwnedBy(c Component, id pointer.ID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, ok := a.records[id]
	return ok && rec.owner.ID() == c.ID()
}

// Owner returns the component that owns id.
func (a *Arbiter) Owner(id pointer.ID) (Component, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, ok := a.records[id]
	if !ok {
		return nil, false
	}
	return rec.owner, true
}

// Len returns the number of captured pointers.
func (a *Arbiter) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}

// ScrollLocked reports whether scroll lock is asserted.
func (a *Arbiter) ScrollLocked() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.locked
}

// Stats returns arbitration counters.
func (a *Arbiter) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// ClearAll drops every capture, relay enrollment and observer, and clears
// scroll lock unconditionally.
func (a *Arbiter) ClearAll() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for id, rec := range a.records {
		a.platformRelease(rec.owner, id)
	}
	clear(a.records)
	clear(a.observers)
	a.locked = false
	if a.locker != nil {
		a.locker.SetScrollLocked(false)
	}
}

// ShouldProcessGesture reports whether the displacement (dx, dy) reaches
// threshold.
func (a *Arbiter) ShouldProcessGesture(dx, dy, threshold float64) bool {
	return ShouldProcessGesture(dx, dy, threshold)
}

// ShouldProcessGesture reports whether the Euclidean length of (dx, dy) is
// at least threshold.
func ShouldProcessGesture(dx, dy, threshold float64) bool {
	return pointer.Distance(dx, dy) >= threshold
}
