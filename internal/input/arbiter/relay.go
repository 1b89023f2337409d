package arbiter

import "github.com/dshills/gesture/internal/input/pointer"

// IsRedispatched reports whether ev carries the relay mark, that is, whether
// it is a relayed copy rather than an original.
func (a *Arbiter) IsRedispatched(ev *pointer.Event) bool {
	return ev.Relayed()
}

// MarkRedispatched sets the relay mark on ev so it is never relayed. It is
// idempotent.
func (a *Arbiter) MarkRedispatched(ev *pointer.Event) {
	ev.MarkRelayed()
}

// Redispatch relays ev from source to the observers of ev's pointer and
// returns the number of deliveries. The relayed copy has the same position,
// pressure, tilt and size as ev, the kind override when one is given, and
// the relay mark. ev itself is marked forwarded, so relaying the same event
// twice delivers at most once. Redispatch of a relay copy does nothing.
//
// Observers run synchronously, in enrollment order, before Redispatch
// returns. source never receives its own relay.
func (a *Arbiter) Redispatch(source Component, ev *pointer.Event, override ...pointer.Kind) int {
	if ev.Relayed() || ev.Forwarded() {
		return 0
	}
	ev.MarkForwarded()

	kind := pointer.KindNone
	if len(override) > 0 {
		kind = override[0]
	}
	relay := ev.Clone(kind)
	relay.MarkRelayed()

	targets := a.relayTargets(source, ev.Pointer)
	for _, o := range targets {
		o.HandleRelay(&relay)
	}
	return len(targets)
}

func (a *Arbiter) relayTargets(source Component, id pointer.ID) []Observer {
	a.mu.Lock()
	defer a.mu.Unlock()

	var targets []Observer
	if rec, ok := a.records[id]; ok {
		for _, o := range rec.refused {
			if isSource(o, source) {
				continue
			}
			targets = append(targets, o)
		}
	}
	for _, e := range a.observers[id] {
		if isSource(e.observer, source) {
			continue
		}
		targets = append(targets, e.observer)
	}
	a.stats.Relays += uint64(len(targets))
	return targets
}

func isSource(o Observer, source Component) bool {
	if source == nil {
		return false
	}
	c, ok := o.(Component)
	return ok && c.ID() == source.ID()
}

// Observe registers o for relays of pointer id until the returned function
// is called or the owner of id releases it.
func (a *Arbiter) Observe(id pointer.ID, o Observer) func() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.nextObs++
	entryID := a.nextObs
	a.observers[id] = append(a.observers[id], observerEntry{id: entryID, observer: o})

	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()

		entries := a.observers[id]
		for i, e := range entries {
			if e.id == entryID {
				a.observers[id] = append(entries[:i:i], entries[i+1:]...)
				break
			}
		}
		if len(a.observers[id]) == 0 {
			delete(a.observers, id)
		}
	}
}
