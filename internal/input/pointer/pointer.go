package pointer

import (
	"math"
	"strconv"
	"time"
)

// ID identifies one pointer contact stream.
type ID int

// String returns the decimal form of the ID.
func (id ID) String() string {
	return strconv.Itoa(int(id))
}

// Kind is the type of a pointer event.
type Kind uint8

const (
	// KindNone is the zero Kind.
	KindNone Kind = iota
	// KindDown starts a contact stream.
	KindDown
	// KindMove reports movement, with or without contact.
	KindMove
	// KindUp ends a contact stream cleanly.
	KindUp
	// KindCancel aborts a contact stream.
	KindCancel
	// KindLeave reports the pointer leaving the host while down.
	KindLeave
	// KindWheel is a scroll wheel step. It carries no contact.
	KindWheel
)

// String returns a string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindDown:
		return "down"
	case KindMove:
		return "move"
	case KindUp:
		return "up"
	case KindCancel:
		return "cancel"
	case KindLeave:
		return "leave"
	case KindWheel:
		return "wheel"
	default:
		return "none"
	}
}

// ParseKind converts a kind name back to a Kind.
func ParseKind(s string) (Kind, bool) {
	for k := KindDown; k <= KindWheel; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return KindNone, false
}

// IsTerminal reports whether the kind ends a contact stream.
func (k Kind) IsTerminal() bool {
	return k == KindUp || k == KindCancel || k == KindLeave
}

// Buttons is a bit set of pressed buttons.
type Buttons uint8

const (
	ButtonPrimary Buttons = 1 << iota
	ButtonSecondary
	ButtonMiddle
)

// Event is a single pointer event.
type Event struct {
	Kind    Kind
	Pointer ID

	// X and Y are host coordinates; Y grows downward.
	X, Y float64

	Buttons  Buttons
	Pressure float64
	TiltX    float64
	TiltY    float64
	Width    float64
	Height   float64

	// WheelX and WheelY are scroll steps for KindWheel.
	WheelX, WheelY float64

	Timestamp time.Time

	relayed   bool
	forwarded bool
}

// Relayed reports whether the event is a relay copy.
func (e *Event) Relayed() bool {
	return e.relayed
}

// MarkRelayed tags the event as a relay copy. It is idempotent.
func (e *Event) MarkRelayed() {
	e.relayed = true
}

// Forwarded reports whether a relay copy of the event has been handed out.
// Forwarding does not make the event a relay copy: components further along
// the delivery path still see it as an original.
func (e *Event) Forwarded() bool {
	return e.forwarded
}

// MarkForwarded records that the event has been relayed. It is idempotent.
func (e *Event) MarkForwarded() {
	e.forwarded = true
}

// Clone returns a copy of e with a different kind. The copy carries the
// same marks as e.
func (e Event) Clone(kind Kind) Event {
	c := e
	if kind != KindNone {
		c.Kind = kind
	}
	return c
}

// Delta returns the displacement from (x, y) to the event position.
func (e Event) Delta(x, y float64) (dx, dy float64) {
	return e.X - x, e.Y - y
}

// Distance returns the Euclidean length of (dx, dy).
func Distance(dx, dy float64) float64 {
	return math.Hypot(dx, dy)
}
