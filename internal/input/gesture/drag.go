package gesture

import (
	"strconv"

	"github.com/dshills/gesture/internal/input/arbiter"
)

// AttrDragThreshold is the distance a pointer must travel before a drag
// starts.
const AttrDragThreshold = "drag-threshold"

// DefaultDragThreshold is the initial drag-threshold.
const DefaultDragThreshold = 5

// DragState is the phase of a drag recognizer.
type DragState uint8

const (
	// DragIdle means no pointer is tracked.
	DragIdle DragState = iota

	// DragArmed means the pointer is captured but has not yet moved
	// drag-threshold units.
	DragArmed

	// DragDragging means drag-start has been emitted.
	DragDragging
)

// String returns the state name.
func (s DragState) String() string {
	switch s {
	case DragArmed:
		return "armed"
	case DragDragging:
		return "dragging"
	default:
		return "idle"
	}
}

// Drag recognizes press-move-release drags.
type Drag struct {
	*Recognizer
}

// NewDrag creates an attached drag recognizer arbitrated by arb.
func NewDrag(arb *arbiter.Arbiter, opts ...Option) *Drag {
	d := &Drag{}
	d.Recognizer = newRecognizer("drag", arb, d, d, opts)
	d.defineAttribute(AttrDragThreshold, DefaultDragThreshold, 0)
	d.Attach()
	return d
}

// SetThreshold sets drag-threshold.
func (d *Drag) SetThreshold(n int) error {
	return d.SetAttribute(AttrDragThreshold, strconv.Itoa(n))
}

// Threshold returns drag-threshold.
func (d *Drag) Threshold() int {
	n, _ := d.Attribute(AttrDragThreshold)
	return n
}

// State returns the current phase.
func (d *Drag) State() DragState {
	switch s := d.Session(); {
	case s == nil:
		return DragIdle
	case s.Committed:
		return DragDragging
	default:
		return DragArmed
	}
}

func (d *Drag) move(s *Session) {
	detail := s.detail()
	if s.Committed {
		detail.IsDragging = true
		d.emit(TopicDragMove, s, detail)
		return
	}
	threshold := float64(s.Limit(AttrDragThreshold))
	if !arbiter.ShouldProcessGesture(detail.DeltaX, detail.DeltaY, threshold) {
		return
	}
	s.Committed = true
	d.log.Debug("drag started", "pointer", int(s.Pointer), "direction", detail.Direction.String(), "distance", detail.Distance)
	d.emit(TopicDragStart, s, detail)
}

func (d *Drag) finish(s *Session, clean bool) {
	if !s.Committed {
		return
	}
	detail := s.detail()
	detail.WasDragging = true
	detail.Clean = clean
	d.log.Debug("drag ended", "pointer", int(s.Pointer), "clean", clean, "distance", detail.Distance)
	d.emit(TopicDragEnd, s, detail)
}

var _ arbiter.Observer = (*Drag)(nil)
