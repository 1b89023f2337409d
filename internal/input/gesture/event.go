package gesture

import (
	"fmt"
	"time"

	"github.com/dshills/gesture/internal/component"
	"github.com/dshills/gesture/internal/event/topic"
	"github.com/dshills/gesture/internal/input/pointer"
)

// Gesture event topics.
const (
	TopicDragStart     topic.Topic = "gesture.drag.start"
	TopicDragMove      topic.Topic = "gesture.drag.move"
	TopicDragEnd       topic.Topic = "gesture.drag.end"
	TopicSwipe         topic.Topic = "gesture.swipe"
	TopicSwipeProgress topic.Topic = "gesture.swipe.progress"

	// TopicAll matches every gesture event.
	TopicAll topic.Topic = "gesture.**"
)

var eventNames = map[topic.Topic]string{
	TopicDragStart:     "drag-start",
	TopicDragMove:      "drag-move",
	TopicDragEnd:       "drag-end",
	TopicSwipe:         "swipe",
	TopicSwipeProgress: "swipe-progress",
}

// Direction is a compass bucket for a displacement.
type Direction uint8

const (
	DirectionNone Direction = iota
	DirectionLeft
	DirectionRight
	DirectionUp
	DirectionDown
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionLeft:
		return "left"
	case DirectionRight:
		return "right"
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	default:
		return "none"
	}
}

// Horizontal reports whether d is left or right.
func (d Direction) Horizontal() bool {
	return d == DirectionLeft || d == DirectionRight
}

// Classify buckets (dx, dy) into a direction. The larger axis wins and the
// horizontal axis wins ties. Y grows downward. A zero displacement has no
// direction.
func Classify(dx, dy float64) Direction {
	adx, ady := abs(dx), abs(dy)
	switch {
	case adx == 0 && ady == 0:
		return DirectionNone
	case adx >= ady && dx > 0:
		return DirectionRight
	case adx >= ady:
		return DirectionLeft
	case dy > 0:
		return DirectionDown
	default:
		return DirectionUp
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Detail carries the measurements of a gesture event. Fields that do not
// apply to an event type are zero.
type Detail struct {
	StartX   float64
	StartY   float64
	CurrentX float64
	CurrentY float64
	DeltaX   float64
	DeltaY   float64
	Distance float64

	Direction Direction

	// IsDragging is set on drag-move.
	IsDragging bool

	// WasDragging is set on drag-end.
	WasDragging bool

	// Clean is false when a drag ended by cancel or leave.
	Clean bool

	// Elapsed is the time since the pointer went down.
	Elapsed time.Duration

	// Velocity is Distance per millisecond of Elapsed.
	Velocity float64
}

// Event is a gesture event. It bubbles from the recognizer through its
// ancestors.
type Event struct {
	Type    topic.Topic
	Pointer pointer.ID

	// Source is the recognizer that emitted the event.
	Source component.Node

	// Target is the concrete component the recognizer wraps, or nil.
	Target component.Node

	Detail Detail
	Time   time.Time
}

// EventTopic implements component.Event.
func (e Event) EventTopic() topic.Topic {
	return e.Type
}

// Name returns the short event name, such as "drag-start".
func (e Event) Name() string {
	if n, ok := eventNames[e.Type]; ok {
		return n
	}
	return e.Type.String()
}

// String formats the event on one line.
func (e Event) String() string {
	d := e.Detail
	s := fmt.Sprintf("%s pointer=%d dir=%s dx=%g dy=%g dist=%.1f", e.Name(), e.Pointer, d.Direction, d.DeltaX, d.DeltaY, d.Distance)
	switch e.Type {
	case TopicDragEnd:
		s += fmt.Sprintf(" clean=%t", d.Clean)
	case TopicSwipe, TopicSwipeProgress:
		s += fmt.Sprintf(" elapsed=%s", d.Elapsed)
	}
	return s
}
