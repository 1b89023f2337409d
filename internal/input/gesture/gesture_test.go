package gesture

import (
	"errors"
	"testing"
	"time"

	"github.com/dshills/gesture/internal/component"
	"github.com/dshills/gesture/internal/event/topic"
	"github.com/dshills/gesture/internal/input/arbiter"
	"github.com/dshills/gesture/internal/input/pointer"
	"github.com/dshills/gesture/internal/surface"
)

var everywhere = component.Rect{Right: 1000, Bottom: 1000}

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// rig is a surface with root > wrappers... > button.
type rig struct {
	t      *testing.T
	arb    *arbiter.Arbiter
	surf   *surface.Surface
	root   *component.Base
	button *component.Base
	events []Event
}

func newRig(t *testing.T) *rig {
	t.Helper()
	root := component.NewBase("root")
	root.SetBounds(everywhere)
	surf, err := surface.New(root)
	if err != nil {
		t.Fatal(err)
	}
	r := &rig{
		t:      t,
		arb:    arbiter.New(arbiter.WithCapturer(surf), arbiter.WithScrollLocker(surf)),
		surf:   surf,
		root:   root,
		button: component.NewBase("button"),
	}
	r.button.SetBounds(everywhere)
	root.OnGesture(TopicAll, func(ev component.Event) {
		r.events = append(r.events, ev.(Event))
	})
	return r
}

// wrap nests the recognizers outermost first and puts the button inside.
func (r *rig) wrap(recognizers ...component.Node) {
	r.t.Helper()
	parent := component.Node(r.root)
	for _, rec := range recognizers {
		if b, ok := rec.(interface{ SetBounds(component.Rect) }); ok {
			b.SetBounds(everywhere)
		}
		if err := component.Append(parent, rec); err != nil {
			r.t.Fatal(err)
		}
		parent = rec
	}
	if err := component.Append(parent, r.button); err != nil {
		r.t.Fatal(err)
	}
}

func (r *rig) send(kind pointer.Kind, x, y float64, ms int) {
	r.surf.Dispatch(pointer.Event{
		Kind:      kind,
		Pointer:   1,
		X:         x,
		Y:         y,
		Timestamp: epoch.Add(time.Duration(ms) * time.Millisecond),
	})
}

func (r *rig) names() []string {
	names := make([]string, len(r.events))
	for i, ev := range r.events {
		names[i] = ev.Name()
	}
	return names
}

func (r *rig) expect(want ...string) {
	r.t.Helper()
	got := r.names()
	if len(got) != len(want) {
		r.t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			r.t.Fatalf("events = %v, want %v", got, want)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		dx, dy float64
		want   Direction
	}{
		{50, 30, DirectionRight},
		{30, 30, DirectionRight},
		{-30, 30, DirectionLeft},
		{-30, -30, DirectionLeft},
		{10, -40, DirectionUp},
		{3, 40, DirectionDown},
		{0, 0, DirectionNone},
	}
	for _, tt := range tests {
		if got := Classify(tt.dx, tt.dy); got != tt.want {
			t.Errorf("Classify(%v, %v) = %s, want %s", tt.dx, tt.dy, got, tt.want)
		}
	}
}

func TestDrag_ThresholdGating(t *testing.T) {
	r := newRig(t)
	drag := NewDrag(r.arb)
	r.wrap(drag)

	r.send(pointer.KindDown, 10, 10, 0)
	if drag.State() != DragArmed || !r.arb.IsOwnedBy(drag, 1) {
		t.Fatalf("after down: state %s, owned %v", drag.State(), r.arb.IsOwnedBy(drag, 1))
	}
	if !r.surf.ScrollLocked() {
		t.Error("scroll not locked while captured")
	}

	r.send(pointer.KindMove, 14, 10, 10)
	r.expect()

	r.send(pointer.KindMove, 16, 10, 20)
	r.expect("drag-start")
	start := r.events[0].Detail
	if start.StartX != 10 || start.CurrentX != 16 || start.DeltaX != 6 || start.Distance != 6 || start.Direction != DirectionRight {
		t.Errorf("drag-start detail = %+v", start)
	}
	if drag.State() != DragDragging {
		t.Errorf("state = %s, want dragging", drag.State())
	}

	r.send(pointer.KindMove, 20, 12, 30)
	r.send(pointer.KindUp, 22, 12, 40)
	r.expect("drag-start", "drag-move", "drag-end")

	if mv := r.events[1].Detail; !mv.IsDragging || mv.DeltaX != 10 || mv.DeltaY != 2 {
		t.Errorf("drag-move detail = %+v", mv)
	}
	if end := r.events[2].Detail; !end.WasDragging || !end.Clean || end.DeltaX != 12 {
		t.Errorf("drag-end detail = %+v", end)
	}
	if drag.State() != DragIdle || r.arb.Len() != 0 || r.surf.ScrollLocked() {
		t.Errorf("not reset: state %s, captures %d, locked %v", drag.State(), r.arb.Len(), r.surf.ScrollLocked())
	}
}

func TestDrag_BelowThresholdIsSilent(t *testing.T) {
	r := newRig(t)
	drag := NewDrag(r.arb)
	r.wrap(drag)

	r.send(pointer.KindDown, 10, 10, 0)
	r.send(pointer.KindMove, 14, 10, 10)
	r.send(pointer.KindUp, 14, 10, 20)

	r.expect()
	if r.arb.Len() != 0 {
		t.Error("capture not released")
	}
}

func TestDrag_InterruptedDragEndsUnclean(t *testing.T) {
	for _, kind := range []pointer.Kind{pointer.KindCancel, pointer.KindLeave} {
		t.Run(kind.String(), func(t *testing.T) {
			r := newRig(t)
			drag := NewDrag(r.arb)
			r.wrap(drag)

			r.send(pointer.KindDown, 0, 0, 0)
			r.send(pointer.KindMove, 0, 20, 10)
			r.send(kind, 0, 25, 20)

			r.expect("drag-start", "drag-end")
			end := r.events[1].Detail
			if end.Clean || !end.WasDragging || end.Direction != DirectionDown {
				t.Errorf("drag-end detail = %+v", end)
			}
			if drag.State() != DragIdle || r.arb.Len() != 0 {
				t.Error("not reset after interruption")
			}
		})
	}
}

func TestDrag_EventTargets(t *testing.T) {
	r := newRig(t)
	drag := NewDrag(r.arb)
	r.wrap(drag)

	r.send(pointer.KindDown, 0, 0, 0)
	r.send(pointer.KindMove, 10, 0, 10)

	ev := r.events[0]
	if ev.Source != component.Node(drag) {
		t.Errorf("Source = %v, want the drag recognizer", ev.Source)
	}
	if ev.Target == nil || ev.Target.ID() != r.button.ID() {
		t.Errorf("Target = %v, want the button", ev.Target)
	}
	if ev.EventTopic() != TopicDragStart || !ev.EventTopic().Matches(topic.Topic("gesture.drag.*")) {
		t.Errorf("topic = %s", ev.EventTopic())
	}
}

func TestDrag_ThresholdSnapshotPerSession(t *testing.T) {
	r := newRig(t)
	drag := NewDrag(r.arb)
	r.wrap(drag)

	r.send(pointer.KindDown, 0, 0, 0)
	if err := drag.SetThreshold(100); err != nil {
		t.Fatal(err)
	}
	r.send(pointer.KindMove, 6, 0, 10)
	r.send(pointer.KindUp, 6, 0, 20)
	r.expect("drag-start", "drag-end")

	r.events = nil
	r.send(pointer.KindDown, 0, 0, 100)
	r.send(pointer.KindMove, 6, 0, 110)
	r.send(pointer.KindUp, 6, 0, 120)
	r.expect()
}

func TestSwipe_Decision(t *testing.T) {
	tests := []struct {
		name    string
		dx, dy  float64
		ms      int
		want    bool
		wantDir Direction
	}{
		{"fast and far", 50, 0, 200, true, DirectionRight},
		{"too short", 20, 0, 200, false, DirectionNone},
		{"too slow", 50, 0, 1000, false, DirectionNone},
		{"upward", 5, -40, 100, true, DirectionUp},
		{"diagonal tie", -30, 30, 100, true, DirectionLeft},
		{"on both bounds", 30, 0, 800, true, DirectionRight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(t)
			swipe := NewSwipe(r.arb)
			swipe.SetProgress(false)
			r.wrap(swipe)

			r.send(pointer.KindDown, 100, 100, 0)
			r.send(pointer.KindMove, 100+tt.dx/2, 100+tt.dy/2, tt.ms/2)
			r.send(pointer.KindUp, 100+tt.dx, 100+tt.dy, tt.ms)

			if !tt.want {
				r.expect()
				return
			}
			r.expect("swipe")
			d := r.events[0].Detail
			if d.Direction != tt.wantDir || d.DeltaX != tt.dx || d.DeltaY != tt.dy {
				t.Errorf("detail = %+v", d)
			}
			if d.Elapsed != time.Duration(tt.ms)*time.Millisecond {
				t.Errorf("Elapsed = %s", d.Elapsed)
			}
			if want := d.Distance / float64(tt.ms); d.Velocity != want {
				t.Errorf("Velocity = %v, want %v", d.Velocity, want)
			}
		})
	}
}

func TestSwipe_InterruptNeverEmits(t *testing.T) {
	for _, kind := range []pointer.Kind{pointer.KindCancel, pointer.KindLeave} {
		r := newRig(t)
		swipe := NewSwipe(r.arb)
		swipe.SetProgress(false)
		r.wrap(swipe)

		r.send(pointer.KindDown, 0, 0, 0)
		r.send(kind, 100, 0, 50)
		r.expect()
		if swipe.Active() || r.arb.Len() != 0 {
			t.Errorf("%s: swipe not reset", kind)
		}
	}
}

func TestSwipe_Progress(t *testing.T) {
	r := newRig(t)
	swipe := NewSwipe(r.arb)
	r.wrap(swipe)

	r.send(pointer.KindDown, 0, 0, 0)
	r.send(pointer.KindMove, 10, 0, 50)
	r.send(pointer.KindMove, 20, 0, 100)
	r.send(pointer.KindUp, 22, 0, 120)

	r.expect("swipe-progress", "swipe-progress")
	if d := r.events[1].Detail; d.DeltaX != 20 || d.Elapsed != 100*time.Millisecond || d.Direction != DirectionRight {
		t.Errorf("progress detail = %+v", d)
	}
}

func TestStacked_InnermostWinsOthersObserve(t *testing.T) {
	r := newRig(t)
	var refused []error
	swipe := NewSwipe(r.arb, OnRefused(func(_ pointer.ID, err error) {
		refused = append(refused, err)
	}))
	drag := NewDrag(r.arb)
	r.wrap(swipe, drag)

	r.send(pointer.KindDown, 10, 10, 0)
	r.send(pointer.KindMove, 40, 10, 50)
	r.send(pointer.KindMove, 60, 10, 100)
	r.send(pointer.KindUp, 60, 10, 150)

	r.expect("drag-start", "drag-move", "drag-end")
	for _, ev := range r.events {
		if ev.Source != component.Node(drag) || ev.Target.ID() != r.button.ID() {
			t.Errorf("%s from %v to %v", ev.Name(), ev.Source, ev.Target)
		}
	}
	if len(refused) != 1 || !errors.Is(refused[0], arbiter.ErrContention) {
		t.Errorf("refusals = %v", refused)
	}
	stats := r.arb.Stats()
	if stats.Contentions != 1 {
		t.Errorf("Contentions = %d, want 1", stats.Contentions)
	}
	// One relay to the swipe per event after the down.
	if stats.Relays != 3 {
		t.Errorf("Relays = %d, want 3", stats.Relays)
	}
	if swipe.Active() || drag.Active() || r.arb.Len() != 0 {
		t.Error("recognizers not reset")
	}
}

func TestRecognizer_IdleWhenPointerOwnedElsewhere(t *testing.T) {
	r := newRig(t)
	r.arb = arbiter.New()
	var refused int
	drag := NewDrag(r.arb, OnRefused(func(pointer.ID, error) { refused++ }))
	r.wrap(drag)

	if !r.arb.RequestCapture(r.button, 1) {
		t.Fatal("button could not capture")
	}
	r.send(pointer.KindDown, 0, 0, 0)
	r.send(pointer.KindMove, 50, 0, 10)
	r.send(pointer.KindUp, 50, 0, 20)

	r.expect()
	if refused != 1 || drag.Active() {
		t.Errorf("refused %d, active %v", refused, drag.Active())
	}
	if !r.arb.IsOwnedBy(r.button, 1) {
		t.Error("refusal changed ownership")
	}
}

func TestRecognizer_PlatformFailureStaysIdle(t *testing.T) {
	r := newRig(t)
	var reason error
	drag := NewDrag(r.arb, OnRefused(func(_ pointer.ID, err error) { reason = err }))
	drag.SetBounds(everywhere)

	// Not in the surface's tree, so the host refuses capture.
	ev := pointer.Event{Kind: pointer.KindDown, Pointer: 1, Timestamp: epoch}
	component.DispatchPointer(drag, &ev)

	if !errors.Is(reason, arbiter.ErrPlatformCapture) {
		t.Errorf("refusal = %v, want platform failure", reason)
	}
	if drag.Active() || r.arb.Len() != 0 {
		t.Error("failed capture left state behind")
	}
}

func TestRecognizer_RelayedDownNeverOpensSession(t *testing.T) {
	r := newRig(t)
	drag := NewDrag(r.arb)
	r.wrap(drag)

	ev := pointer.Event{Kind: pointer.KindDown, Pointer: 1}
	r.arb.MarkRedispatched(&ev)
	drag.HandleRelay(&ev)
	if drag.Active() || r.arb.Len() != 0 {
		t.Error("relay copy opened a session")
	}
}

func TestRecognizer_CaptureLostMidGesture(t *testing.T) {
	r := newRig(t)
	drag := NewDrag(r.arb)
	r.wrap(drag)

	r.send(pointer.KindDown, 0, 0, 0)
	r.send(pointer.KindMove, 10, 0, 10)
	r.arb.ClearAll()
	r.send(pointer.KindMove, 20, 0, 20)

	r.expect("drag-start", "drag-end")
	if r.events[1].Detail.Clean {
		t.Error("drag-end after lost capture marked clean")
	}
	if drag.Active() {
		t.Error("session still open")
	}
}

func TestRecognizer_CaptureLostBeforeRelease(t *testing.T) {
	t.Run("swipe", func(t *testing.T) {
		r := newRig(t)
		swipe := NewSwipe(r.arb)
		swipe.SetProgress(false)
		r.wrap(swipe)

		r.send(pointer.KindDown, 10, 10, 0)
		r.arb.ClearAll()
		r.send(pointer.KindUp, 60, 10, 200)

		r.expect()
		if swipe.Active() || r.arb.Len() != 0 || r.surf.ScrollLocked() {
			t.Error("state left behind after lost capture")
		}

		// The next gesture behaves as if nothing had been captured.
		r.send(pointer.KindDown, 10, 10, 1000)
		r.send(pointer.KindUp, 60, 10, 1200)
		r.expect("swipe")
	})

	t.Run("drag", func(t *testing.T) {
		r := newRig(t)
		drag := NewDrag(r.arb)
		r.wrap(drag)

		r.send(pointer.KindDown, 0, 0, 0)
		r.send(pointer.KindMove, 10, 0, 10)
		r.arb.ClearAll()
		r.send(pointer.KindUp, 10, 0, 20)

		r.expect("drag-start", "drag-end")
		if r.events[1].Detail.Clean {
			t.Error("drag-end after lost capture marked clean")
		}
		if drag.Active() || r.arb.Len() != 0 {
			t.Error("state left behind after lost capture")
		}
	})
}

func TestRecognizer_Detach(t *testing.T) {
	r := newRig(t)
	drag := NewDrag(r.arb)
	r.wrap(drag)

	r.send(pointer.KindDown, 0, 0, 0)
	drag.Detach()
	if drag.Active() || r.arb.Len() != 0 {
		t.Error("Detach left the session open")
	}
	r.send(pointer.KindMove, 50, 0, 10)
	r.send(pointer.KindUp, 50, 0, 20)
	r.send(pointer.KindDown, 0, 0, 30)
	r.send(pointer.KindMove, 50, 0, 40)
	r.expect()
}

func TestSetAttribute(t *testing.T) {
	arb := arbiter.New()
	drag := NewDrag(arb)
	swipe := NewSwipe(arb)

	tests := []struct {
		name    string
		rec     *Recognizer
		attr    string
		value   string
		wantErr error
		want    int
	}{
		{"drag threshold", drag.Recognizer, AttrDragThreshold, "10", nil, 10},
		{"drag zero", drag.Recognizer, AttrDragThreshold, " 0 ", nil, 0},
		{"drag negative", drag.Recognizer, AttrDragThreshold, "-1", ErrOutOfRange, 0},
		{"drag text", drag.Recognizer, AttrDragThreshold, "far", ErrNotInteger, 0},
		{"drag fraction", drag.Recognizer, AttrDragThreshold, "2.5", ErrNotInteger, 0},
		{"swipe distance", swipe.Recognizer, AttrMinSwipeDistance, "45", nil, 45},
		{"swipe distance zero", swipe.Recognizer, AttrMinSwipeDistance, "0", ErrOutOfRange, 45},
		{"swipe time", swipe.Recognizer, AttrMaxSwipeTime, "300", nil, 300},
		{"swipe time empty", swipe.Recognizer, AttrMaxSwipeTime, "", ErrNotInteger, 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.SetAttribute(tt.attr, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SetAttribute(%q) = %v, want %v", tt.value, err, tt.wantErr)
			}
			if err != nil {
				var cfgErr *ConfigError
				if !errors.As(err, &cfgErr) || cfgErr.Attribute != tt.attr || cfgErr.Value != tt.value {
					t.Errorf("error = %#v", err)
				}
			}
			if got, _ := tt.rec.Attribute(tt.attr); got != tt.want {
				t.Errorf("%s = %d, want %d", tt.attr, got, tt.want)
			}
		})
	}

	if err := drag.SetAttribute(AttrMaxSwipeTime, "10"); !errors.Is(err, ErrUnknownAttribute) {
		t.Errorf("unknown attribute: %v", err)
	}
	if drag.HasAttribute(AttrMaxSwipeTime) || !swipe.HasAttribute(AttrMaxSwipeTime) {
		t.Error("HasAttribute wrong")
	}
	if err := swipe.SetMaxTime(1500 * time.Millisecond); err != nil || swipe.MaxTime() != 1500*time.Millisecond {
		t.Errorf("SetMaxTime: %v, %s", err, swipe.MaxTime())
	}
	if names := swipe.AttributeNames(); len(names) != 2 || names[0] != AttrMaxSwipeTime {
		t.Errorf("AttributeNames = %v", names)
	}
}

func TestDefaults(t *testing.T) {
	arb := arbiter.New()
	if got := NewDrag(arb).Threshold(); got != DefaultDragThreshold {
		t.Errorf("drag threshold = %d", got)
	}
	s := NewSwipe(arb)
	if s.MinDistance() != 30 || s.MaxTime() != 800*time.Millisecond || !s.Progress() {
		t.Errorf("swipe defaults = %d, %s, %v", s.MinDistance(), s.MaxTime(), s.Progress())
	}
}
