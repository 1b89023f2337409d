// Package arbiter decides which component owns each active pointer.
//
// An Arbiter is constructed once per host and injected into every gesture
// recognizer attached to it. Capture is first-come-first-served per pointer:
//
//	arb := arbiter.New(arbiter.WithCapturer(host), arbiter.WithScrollLocker(host))
//	if arb.RequestCapture(rec, ev.Pointer) {
//	    // rec interprets the rest of this pointer's stream
//	    arb.Redispatch(rec, ev)
//	}
//	...
//	arb.Release(rec, ev.Pointer)
//
// # Relay
//
// Components that lose arbitration still see the stream. Redispatch hands a
// marked copy of each event to the pointer's observers: every refused
// claimant that implements Observer, plus anything registered with Observe.
// A marked event is never relayed again, so a relay chain is at most one hop
// long no matter how deeply recognizers are nested.
//
// # Scroll lock
//
// While any pointer is captured the arbiter asserts scroll lock on its
// ScrollLocker; it clears the lock when the last capture is released.
//
// # Thread Safety
//
// Arbiter is safe for concurrent use. Observers are invoked without the
// internal lock held, so they may call back into the arbiter.
package arbiter
