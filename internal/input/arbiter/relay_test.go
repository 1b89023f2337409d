package arbiter

import (
	"testing"
	"time"

	"github.com/dshills/gesture/internal/input/pointer"
)

func TestRedispatch_RefusedClaimantObserves(t *testing.T) {
	arb := New()
	owner := &fakeComponent{id: "owner"}
	loser := &fakeComponent{id: "loser"}

	arb.RequestCapture(owner, 1)
	arb.RequestCapture(loser, 1)
	arb.RequestCapture(loser, 1) // enrolled once

	ev := pointer.Event{Kind: pointer.KindMove, Pointer: 1, X: 5, Y: 6, Pressure: 0.4, TiltX: 3, Width: 2, Height: 2, Timestamp: time.Now()}
	if n := arb.Redispatch(owner, &ev); n != 1 {
		t.Fatalf("Redispatch() = %d, want 1", n)
	}

	if len(loser.relays) != 1 {
		t.Fatalf("loser saw %d relays, want 1", len(loser.relays))
	}
	got := loser.relays[0]
	if !got.Relayed() {
		t.Error("relay is not marked")
	}
	if got.Kind != pointer.KindMove || got.X != 5 || got.Y != 6 || got.Pressure != 0.4 || got.TiltX != 3 || got.Width != 2 {
		t.Errorf("relay lost attributes: %+v", got)
	}
	if len(owner.relays) != 0 {
		t.Error("source received its own relay")
	}
}

func TestRedispatch_NoDoubleRelay(t *testing.T) {
	arb := New()
	obs := &fakeComponent{id: "obs"}
	arb.Observe(1, obs)

	ev := pointer.Event{Kind: pointer.KindDown, Pointer: 1}
	first := arb.Redispatch(plain("src"), &ev)
	second := arb.Redispatch(plain("src"), &ev)

	if first+second > 1 {
		t.Errorf("same event relayed %d times", first+second)
	}
	if !ev.Forwarded() {
		t.Error("original not marked forwarded after relay")
	}
	if arb.IsRedispatched(&ev) {
		t.Error("original mistaken for a relay copy")
	}

	marked := pointer.Event{Kind: pointer.KindDown, Pointer: 1}
	arb.MarkRedispatched(&marked)
	arb.MarkRedispatched(&marked)
	if n := arb.Redispatch(plain("src"), &marked); n != 0 {
		t.Errorf("relaying a marked event delivered %d", n)
	}
	if len(obs.relays) != 1 {
		t.Errorf("observer saw %d relays, want 1", len(obs.relays))
	}
}

// rerelayer tries to relay whatever it receives.
type rerelayer struct {
	arb   *Arbiter
	id    string
	calls int
}

func (r *rerelayer) ID() string { return r.id }

func (r *rerelayer) HandleRelay(ev *pointer.Event) {
	r.calls++
	r.arb.Redispatch(r, ev)
}

func TestRedispatch_ChainBoundedByMarker(t *testing.T) {
	arb := New()
	a := &rerelayer{arb: arb, id: "a"}
	b := &rerelayer{arb: arb, id: "b"}
	arb.Observe(1, a)
	arb.Observe(1, b)

	ev := pointer.Event{Kind: pointer.KindMove, Pointer: 1}
	arb.Redispatch(plain("src"), &ev)

	if a.calls != 1 || b.calls != 1 {
		t.Errorf("calls a=%d b=%d, want 1 each", a.calls, b.calls)
	}
	if got := arb.Stats().Relays; got != 2 {
		t.Errorf("Relays = %d, want 2", got)
	}
}

func TestRedispatch_OverrideKind(t *testing.T) {
	arb := New()
	obs := &fakeComponent{id: "obs"}
	arb.Observe(4, obs)

	ev := pointer.Event{Kind: pointer.KindUp, Pointer: 4}
	arb.Redispatch(plain("src"), &ev, pointer.KindCancel)

	if len(obs.relays) != 1 || obs.relays[0].Kind != pointer.KindCancel {
		t.Errorf("relays = %+v", obs.relays)
	}
}

type namedObserver struct {
	name string
	log  *[]string
}

func (o namedObserver) ID() string { return o.name }

func (o namedObserver) HandleRelay(*pointer.Event) {
	*o.log = append(*o.log, o.name)
}

func TestRedispatch_OrderAndPointerScope(t *testing.T) {
	arb := New()
	owner := plain("owner")

	var log []string
	arb.RequestCapture(owner, 1)
	arb.RequestCapture(namedObserver{"refused-1", &log}, 1)
	arb.RequestCapture(namedObserver{"refused-2", &log}, 1)
	arb.Observe(1, namedObserver{"explicit", &log})
	arb.Observe(2, namedObserver{"other-pointer", &log})

	ev := pointer.Event{Kind: pointer.KindMove, Pointer: 1}
	arb.Redispatch(owner, &ev)

	want := []string{"refused-1", "refused-2", "explicit"}
	if len(log) != len(want) {
		t.Fatalf("deliveries = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("deliveries = %v, want %v", log, want)
		}
	}
}

func TestRelease_DropsObservers(t *testing.T) {
	arb := New()
	owner := plain("owner")
	refused := &fakeComponent{id: "refused"}
	explicit := &fakeComponent{id: "explicit"}

	arb.RequestCapture(owner, 1)
	arb.RequestCapture(refused, 1)
	unobserve := arb.Observe(1, explicit)
	arb.Release(owner, 1)

	ev := pointer.Event{Kind: pointer.KindDown, Pointer: 1}
	if n := arb.Redispatch(owner, &ev); n != 0 {
		t.Errorf("deliveries after release = %d, want 0", n)
	}
	if len(refused.relays) != 0 {
		t.Error("refused claimant still enrolled after release")
	}
	if len(explicit.relays) != 0 {
		t.Error("explicit observer still enrolled after release")
	}

	// A new owner of the same pointer does not inherit stale observers.
	next := plain("next")
	if !arb.RequestCapture(next, 1) {
		t.Fatal("capture after release refused")
	}
	ev2 := pointer.Event{Kind: pointer.KindMove, Pointer: 1}
	if n := arb.Redispatch(next, &ev2); n != 0 {
		t.Errorf("stale observer received %d relays", n)
	}

	// Unobserving an already dropped entry is harmless.
	unobserve()
	unobserve()
}

func TestRelease_NonOwnerKeepsObservers(t *testing.T) {
	arb := New()
	owner := plain("owner")
	explicit := &fakeComponent{id: "explicit"}

	arb.RequestCapture(owner, 1)
	arb.Observe(1, explicit)
	arb.Release(plain("intruder"), 1)

	ev := pointer.Event{Kind: pointer.KindMove, Pointer: 1}
	arb.Redispatch(owner, &ev)
	if len(explicit.relays) != 1 {
		t.Errorf("observer saw %d relays, want 1", len(explicit.relays))
	}
}

func TestClearAll_DropsObservers(t *testing.T) {
	arb := New()
	owner := plain("owner")
	explicit := &fakeComponent{id: "explicit"}
	idle := &fakeComponent{id: "idle"}

	arb.RequestCapture(owner, 1)
	arb.Observe(1, explicit)
	unobserve := arb.Observe(2, idle)
	arb.ClearAll()

	for _, id := range []pointer.ID{1, 2} {
		ev := pointer.Event{Kind: pointer.KindMove, Pointer: id}
		if n := arb.Redispatch(owner, &ev); n != 0 {
			t.Errorf("pointer %d: deliveries after ClearAll = %d", id, n)
		}
	}
	unobserve()
}

type reentrant struct {
	arb  *Arbiter
	seen bool
}

func (r *reentrant) HandleRelay(ev *pointer.Event) {
	// Calling back into the arbiter must not deadlock.
	_ = r.arb.Len()
	_, _ = r.arb.Owner(ev.Pointer)
	r.seen = true
}

func TestRedispatch_ObserverMayReenter(t *testing.T) {
	arb := New()
	r := &reentrant{arb: arb}
	arb.Observe(1, r)

	ev := pointer.Event{Kind: pointer.KindMove, Pointer: 1}
	arb.Redispatch(nil, &ev)
	if !r.seen {
		t.Error("observer not called")
	}
}
