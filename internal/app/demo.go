package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/gesture/internal/component"
	"github.com/dshills/gesture/internal/event"
	"github.com/dshills/gesture/internal/input/gesture"
	"github.com/dshills/gesture/internal/surface"
)

// Host units per terminal cell in the demo. Cells are roughly twice as tall
// as they are wide.
const (
	demoCellW = 8
	demoCellH = 16
)

const demoHistory = 6

// demoView draws the button and a log of recent gesture events.
type demoView struct {
	screen tcell.Screen
	scene  *Scene

	mu      sync.Mutex
	history []string
	offX    int
	offY    int
	banner  string
}

func newDemoView(screen tcell.Screen, scene *Scene) *demoView {
	return &demoView{screen: screen, scene: scene}
}

// Handle implements event.Handler for gesture events.
func (v *demoView) Handle(_ context.Context, ev any) error {
	gev, ok := ev.(gesture.Event)
	if !ok {
		return nil
	}

	v.mu.Lock()
	switch gev.Type {
	case gesture.TopicDragMove:
		v.offX = int(gev.Detail.DeltaX / demoCellW)
		v.offY = int(gev.Detail.DeltaY / demoCellH)
	case gesture.TopicDragEnd:
		v.offX, v.offY = 0, 0
	case gesture.TopicSwipe:
		v.banner = "swiped " + gev.Detail.Direction.String()
	}
	if gev.Type != gesture.TopicSwipeProgress && gev.Type != gesture.TopicDragMove {
		v.history = append(v.history, gev.String())
		if len(v.history) > demoHistory {
			v.history = v.history[len(v.history)-demoHistory:]
		}
	}
	v.mu.Unlock()

	v.draw()
	return nil
}

// padCells returns the pad's cell area: the right third of the screen
// between the header and the event log.
func padCells(w, h int) (x0, y0, x1, y1 int) {
	return w - w/3, 2, w, h - demoHistory - 1
}

// layout places the pad for the current screen size. It runs on the
// dispatch goroutine.
func (v *demoView) layout() {
	if v.scene.Pad == nil {
		return
	}
	x0, y0, x1, y1 := padCells(v.screen.Size())
	if x1 <= x0 || y1 <= y0 {
		v.scene.SetPadBounds(component.Rect{})
		return
	}
	v.scene.SetPadBounds(component.Rect{
		Left:   float64(x0 * demoCellW),
		Top:    float64(y0 * demoCellH),
		Right:  float64(x1 * demoCellW),
		Bottom: float64(y1 * demoCellH),
	})
}

// handleOther processes keys and resizes. It returns false to quit.
func (v *demoView) handleOther(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC:
			return false
		case ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q'):
			return false
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'r':
			v.scene.Reset()
		}
	case *tcell.EventResize:
		v.screen.Sync()
		v.layout()
	}
	v.draw()
	return true
}

func (v *demoView) draw() {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := v.screen
	s.Clear()
	w, h := s.Size()

	plain := tcell.StyleDefault
	bold := plain.Bold(true)
	button := plain.Reverse(true)

	title := "gesture demo: drag the button, q quits, r resets"
	if v.scene.Pad != nil {
		title = "gesture demo: drag the button or flick the pad, q quits, r resets"
	}
	v.text(0, 0, bold, title)
	v.text(0, 1, plain, fmt.Sprintf("tree: root > %v > button   scroll lock: %t", v.scene.Kinds(), v.scene.Surface.ScrollLocked()))

	if v.scene.Pad != nil {
		x0, y0, x1, y1 := padCells(w, h)
		pad := plain.Dim(true)
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				s.SetContent(x, y, '.', nil, pad)
			}
		}
		if y1 > y0 {
			v.text(x0+1, y0, bold, "flick pad")
		}
	}

	const bw, bh = 14, 3
	bx := w/2 - bw/2 + v.offX
	by := h/2 - bh/2 + v.offY
	for y := by; y < by+bh; y++ {
		for x := bx; x < bx+bw; x++ {
			s.SetContent(x, y, ' ', nil, button)
		}
	}
	v.text(bx+4, by+1, button, "button")

	if v.banner != "" {
		v.text(w/2-len(v.banner)/2, by+bh+1, bold, v.banner)
	}
	for i, line := range v.history {
		v.text(0, h-len(v.history)+i, plain, line)
	}
	s.Show()
}

// text must be called with v.mu held.
func (v *demoView) text(x, y int, style tcell.Style, str string) {
	for i, r := range []rune(str) {
		v.screen.SetContent(x+i, y, r, nil, style)
	}
}

// RunDemo runs the interactive terminal demo on screen until ctx is done or
// the user quits.
func (app *Application) RunDemo(ctx context.Context, screen tcell.Screen) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	if err := screen.Init(); err != nil {
		return &InitError{Component: "screen", Err: err}
	}
	defer screen.Fini()
	screen.EnableMouse()
	screen.EnableFocus()

	view := newDemoView(screen, app.scene)
	sub, err := app.scene.Bus.Subscribe(gesture.TopicAll, view)
	if err != nil {
		return &InitError{Component: "demo view", Err: err}
	}
	defer func() { _ = app.scene.Bus.Unsubscribe(sub) }()
	view.layout()
	view.draw()

	src := surface.NewTcellSource(app.scene, surface.WithCellSize(demoCellW, demoCellH))
	err = src.Run(ctx, screen, view.handleOther)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

var _ event.Handler = (*demoView)(nil)
