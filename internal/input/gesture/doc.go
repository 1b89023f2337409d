// Package gesture turns pointer streams into drag and swipe gestures.
//
// Recognizers are wrapper components: they sit in the component tree
// around the component they affect and listen for pointer events bubbling
// up from it. On a down they ask the shared arbiter for capture; the
// winner interprets the rest of the stream and relays each event to the
// pointer's observers, the losers stay idle until the next down.
//
//	arb := arbiter.New(arbiter.WithCapturer(host), arbiter.WithScrollLocker(host))
//	drag := gesture.NewDrag(arb)
//	component.Append(drag, button)
//	drag.OnGesture(gesture.TopicDragMove, func(ev component.Event) {
//	    e := ev.(gesture.Event)
//	    move(e.Target, e.Detail.DeltaX, e.Detail.DeltaY)
//	})
//
// # Drag
//
// Drag emits drag-start once the pointer has moved drag-threshold units
// (default 5) from where it went down, drag-move on every later move, and
// drag-end when the pointer is released. A drag that never reaches the
// threshold emits nothing. Cancel and leave still end an active drag, with
// Detail.Clean set to false.
//
// # Swipe
//
// Swipe decides once, on a clean up: the gesture is a swipe when the
// pointer travelled at least min-swipe-distance (default 30) within
// max-swipe-time milliseconds (default 800). Otherwise, and on cancel or
// leave, nothing is emitted. While the pointer moves, swipe-progress events
// report the uncommitted displacement.
//
// # Attributes
//
// Thresholds are set by name with SetAttribute, as strings, exactly as the
// configuration layer supplies them. Invalid values are rejected and the
// previous value kept. A gesture in progress keeps the thresholds it
// started with.
package gesture
