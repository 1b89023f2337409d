package gesture

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/dshills/gesture/internal/input/arbiter"
)

// Swipe attributes.
const (
	// AttrMinSwipeDistance is the minimum travel, in host units, of a swipe.
	AttrMinSwipeDistance = "min-swipe-distance"

	// AttrMaxSwipeTime is the longest a swipe may take, in milliseconds.
	AttrMaxSwipeTime = "max-swipe-time"
)

// Swipe defaults.
const (
	DefaultMinSwipeDistance = 30
	DefaultMaxSwipeTime     = 800
)

// Swipe recognizes quick directional flicks. It decides once, when the
// pointer is released.
type Swipe struct {
	*Recognizer
	progress atomic.Bool
}

// NewSwipe creates an attached swipe recognizer arbitrated by arb. Progress
// events are enabled.
func NewSwipe(arb *arbiter.Arbiter, opts ...Option) *Swipe {
	s := &Swipe{}
	s.Recognizer = newRecognizer("swipe", arb, s, s, opts)
	s.defineAttribute(AttrMinSwipeDistance, DefaultMinSwipeDistance, 1)
	s.defineAttribute(AttrMaxSwipeTime, DefaultMaxSwipeTime, 1)
	s.progress.Store(true)
	s.Attach()
	return s
}

// SetMinDistance sets min-swipe-distance.
func (w *Swipe) SetMinDistance(n int) error {
	return w.SetAttribute(AttrMinSwipeDistance, strconv.Itoa(n))
}

// SetMaxTime sets max-swipe-time, rounded down to whole milliseconds.
func (w *Swipe) SetMaxTime(d time.Duration) error {
	return w.SetAttribute(AttrMaxSwipeTime, strconv.FormatInt(d.Milliseconds(), 10))
}

// MinDistance returns min-swipe-distance.
func (w *Swipe) MinDistance() int {
	n, _ := w.Attribute(AttrMinSwipeDistance)
	return n
}

// MaxTime returns max-swipe-time.
func (w *Swipe) MaxTime() time.Duration {
	n, _ := w.Attribute(AttrMaxSwipeTime)
	return time.Duration(n) * time.Millisecond
}

// SetProgress turns swipe-progress events on or off.
func (w *Swipe) SetProgress(on bool) {
	w.progress.Store(on)
}

// Progress reports whether swipe-progress events are emitted.
func (w *Swipe) Progress() bool {
	return w.progress.Load()
}

func (w *Swipe) move(s *Session) {
	if !w.progress.Load() {
		return
	}
	w.emit(TopicSwipeProgress, s, s.detail())
}

func (w *Swipe) finish(s *Session, clean bool) {
	if !clean {
		return
	}
	detail := s.detail()
	minDistance := float64(s.Limit(AttrMinSwipeDistance))
	maxTime := time.Duration(s.Limit(AttrMaxSwipeTime)) * time.Millisecond
	if detail.Distance < minDistance || detail.Elapsed > maxTime {
		w.log.Debug("swipe discarded", "pointer", int(s.Pointer), "distance", detail.Distance, "elapsed", detail.Elapsed)
		return
	}
	if ms := float64(detail.Elapsed) / float64(time.Millisecond); ms > 0 {
		detail.Velocity = detail.Distance / ms
	}
	s.Committed = true
	w.log.Debug("swipe recognized", "pointer", int(s.Pointer), "direction", detail.Direction.String(), "distance", detail.Distance)
	w.emit(TopicSwipe, s, detail)
}

var _ arbiter.Observer = (*Swipe)(nil)
