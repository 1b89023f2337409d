package app

import (
	"context"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/gesture/internal/input/gesture"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRunDemo_DragAndQuit(t *testing.T) {
	app := newTestApp(t, Options{})
	got := collect(t, app.Scene())
	screen := tcell.NewSimulationScreen("")

	done := make(chan error, 1)
	go func() {
		done <- app.RunDemo(context.Background(), screen)
	}()
	// The collector plus the demo view.
	waitFor(t, "demo view", func() bool { return app.Scene().Bus.Stats().Subscriptions == 2 })

	screen.InjectMouse(5, 5, tcell.Button1, tcell.ModNone)
	screen.InjectMouse(15, 5, tcell.Button1, tcell.ModNone)
	screen.InjectMouse(15, 5, tcell.ButtonNone, tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunDemo() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("RunDemo did not quit")
	}

	want := []string{"drag-start", "drag-end"}
	if !equal(names(*got), want) {
		t.Fatalf("events = %v, want %v", names(*got), want)
	}
	if d := (*got)[0].Detail.DeltaX; d != 10*demoCellW {
		t.Errorf("DeltaX = %v, want %v", d, 10*demoCellW)
	}
	if app.IsRunning() {
		t.Error("IsRunning() after quit")
	}
	if n := app.Scene().Bus.Stats().Subscriptions; n != 1 {
		t.Errorf("Subscriptions = %d after quit, want 1", n)
	}
}

func TestRunDemo_FlickPadSwipe(t *testing.T) {
	app := newTestApp(t, Options{FlickPad: true})
	got := collect(t, app.Scene())
	screen := tcell.NewSimulationScreen("")

	done := make(chan error, 1)
	go func() {
		done <- app.RunDemo(context.Background(), screen)
	}()
	waitFor(t, "demo view", func() bool { return app.Scene().Bus.Stats().Subscriptions == 2 })

	// The simulation screen is 80x25, so the pad spans columns 54 to 79.
	screen.InjectMouse(56, 5, tcell.Button1, tcell.ModNone)
	screen.InjectMouse(66, 5, tcell.Button1, tcell.ModNone)
	screen.InjectMouse(76, 5, tcell.ButtonNone, tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunDemo() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("RunDemo did not quit")
	}

	evs := *got
	if len(evs) == 0 {
		t.Fatal("no events")
	}
	last := evs[len(evs)-1]
	if last.Name() != "swipe" || last.Detail.Direction != gesture.DirectionRight {
		t.Fatalf("events = %v, want a right swipe last", names(evs))
	}
	for _, ev := range evs {
		if ev.Type == gesture.TopicDragStart {
			t.Errorf("drag started inside the pad: %v", names(evs))
		}
	}
}

func TestRunDemo_CancelAndAlreadyRunning(t *testing.T) {
	app := newTestApp(t, Options{})
	screen := tcell.NewSimulationScreen("")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- app.RunDemo(ctx, screen)
	}()
	waitFor(t, "demo view", func() bool { return app.Scene().Bus.Stats().Subscriptions == 1 })

	if err := app.RunDemo(ctx, tcell.NewSimulationScreen("")); err != ErrAlreadyRunning {
		t.Errorf("second RunDemo() = %v, want ErrAlreadyRunning", err)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("RunDemo() = %v, want nil on cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("RunDemo did not stop")
	}
}

func TestDemoView_Handle(t *testing.T) {
	scene, err := NewScene(DefaultTree)
	if err != nil {
		t.Fatal(err)
	}
	screen := tcell.NewSimulationScreen("")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	defer screen.Fini()
	screen.SetSize(80, 24)

	v := newDemoView(screen, scene)
	_ = v.Handle(context.Background(), gesture.Event{
		Type:   gesture.TopicDragMove,
		Detail: gesture.Detail{DeltaX: 4 * demoCellW, DeltaY: 2 * demoCellH},
	})
	if v.offX != 4 || v.offY != 2 {
		t.Errorf("offset = (%d, %d), want (4, 2)", v.offX, v.offY)
	}
	_ = v.Handle(context.Background(), gesture.Event{
		Type:   gesture.TopicSwipe,
		Detail: gesture.Detail{Direction: gesture.DirectionLeft},
	})
	if v.banner != "swiped left" {
		t.Errorf("banner = %q", v.banner)
	}
	if len(v.history) != 1 {
		t.Errorf("history = %v, want only the swipe", v.history)
	}
	if err := v.Handle(context.Background(), "noise"); err != nil {
		t.Errorf("Handle(noise) = %v", err)
	}
}
