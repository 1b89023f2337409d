package surface

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/gesture/internal/input/pointer"
)

// MousePointer is the pointer ID used for the terminal mouse.
const MousePointer pointer.ID = 1

// Dispatcher receives translated pointer events.
type Dispatcher interface {
	Dispatch(ev pointer.Event) bool
}

// TcellSource translates tcell mouse, focus and resize events into a
// pointer event stream.
//
// Terminals report button state rather than transitions, so the source
// keeps the last reported state: a primary button appearing is a down,
// motion while held is a move, the button disappearing is an up. Losing
// focus while down is a leave; a resize while down is a cancel.
type TcellSource struct {
	target Dispatcher

	pressed  pointer.Buttons
	lastX    int
	lastY    int
	hasLast  bool
	cellW    float64
	cellH    float64
	pressure float64
}

// TcellOption configures a TcellSource.
type TcellOption func(*TcellSource)

// WithCellSize scales cell coordinates to host units. Terminal cells are
// usually about twice as tall as they are wide.
func WithCellSize(w, h float64) TcellOption {
	return func(s *TcellSource) {
		if w > 0 && h > 0 {
			s.cellW, s.cellH = w, h
		}
	}
}

// NewTcellSource creates a source feeding target.
func NewTcellSource(target Dispatcher, opts ...TcellOption) *TcellSource {
	s := &TcellSource{
		target:   target,
		cellW:    1,
		cellH:    1,
		pressure: 0.5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Pressed reports whether a button is currently held.
func (s *TcellSource) Pressed() bool {
	return s.pressed != 0
}

// HandleEvent translates ev. It reports whether ev was consumed as pointer
// input.
func (s *TcellSource) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventMouse:
		s.handleMouse(ev)
		return true
	case *tcell.EventFocus:
		if !ev.Focused && s.pressed != 0 {
			when := time.Now()
			// tcell posts focus events without a timestamp.
			if ev.EventTime != nil {
				when = ev.When()
			}
			s.terminate(pointer.KindLeave, when)
		}
		return false
	case *tcell.EventResize:
		if s.pressed != 0 {
			s.terminate(pointer.KindCancel, ev.When())
		}
		return false
	}
	return false
}

func (s *TcellSource) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	mask := ev.Buttons()
	when := ev.When()

	if wheel := mask & (tcell.WheelUp | tcell.WheelDown | tcell.WheelLeft | tcell.WheelRight); wheel != 0 {
		pe := s.event(pointer.KindWheel, x, y, when)
		switch {
		case wheel&tcell.WheelUp != 0:
			pe.WheelY = -1
		case wheel&tcell.WheelDown != 0:
			pe.WheelY = 1
		case wheel&tcell.WheelLeft != 0:
			pe.WheelX = -1
		case wheel&tcell.WheelRight != 0:
			pe.WheelX = 1
		}
		s.target.Dispatch(pe)
	}

	buttons := translateButtons(mask)
	moved := !s.hasLast || x != s.lastX || y != s.lastY
	s.lastX, s.lastY, s.hasLast = x, y, true

	switch {
	case s.pressed == 0 && buttons != 0:
		s.pressed = buttons
		s.target.Dispatch(s.event(pointer.KindDown, x, y, when))
	case s.pressed != 0 && buttons == 0:
		s.pressed = 0
		s.target.Dispatch(s.event(pointer.KindUp, x, y, when))
	case moved:
		if buttons != 0 {
			s.pressed = buttons
		}
		s.target.Dispatch(s.event(pointer.KindMove, x, y, when))
	}
}

func (s *TcellSource) terminate(kind pointer.Kind, when time.Time) {
	ev := s.event(kind, s.lastX, s.lastY, when)
	s.pressed = 0
	s.target.Dispatch(ev)
}

func (s *TcellSource) event(kind pointer.Kind, x, y int, when time.Time) pointer.Event {
	ev := pointer.Event{
		Kind:      kind,
		Pointer:   MousePointer,
		X:         float64(x) * s.cellW,
		Y:         float64(y) * s.cellH,
		Buttons:   s.pressed,
		Width:     s.cellW,
		Height:    s.cellH,
		Timestamp: when,
	}
	if s.pressed != 0 {
		ev.Pressure = s.pressure
	}
	return ev
}

func translateButtons(mask tcell.ButtonMask) pointer.Buttons {
	var b pointer.Buttons
	if mask&tcell.Button1 != 0 {
		b |= pointer.ButtonPrimary
	}
	if mask&tcell.Button2 != 0 {
		b |= pointer.ButtonSecondary
	}
	if mask&tcell.Button3 != 0 {
		b |= pointer.ButtonMiddle
	}
	return b
}

// Run polls screen until ctx is done or other returns false. Events that
// are not pointer input are passed to other, which may be nil.
func (s *TcellSource) Run(ctx context.Context, screen tcell.Screen, other func(tcell.Event) bool) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = screen.PostEvent(tcell.NewEventInterrupt(nil))
		case <-stop:
		}
	}()

	for {
		ev := screen.PollEvent()
		if ev == nil {
			return nil
		}
		if _, ok := ev.(*tcell.EventInterrupt); ok && ctx.Err() != nil {
			if s.pressed != 0 {
				s.terminate(pointer.KindCancel, time.Now())
			}
			return ctx.Err()
		}
		if s.HandleEvent(ev) {
			continue
		}
		if other != nil && !other(ev) {
			return nil
		}
	}
}
