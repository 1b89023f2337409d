// Package event provides the synchronous bus that gesture events reach once
// they have bubbled to the root of a component tree.
//
// Subscribers register a topic pattern (see package topic) and a Handler.
// Publish delivers to every matching subscription in subscription order, in
// the publisher's goroutine, before returning. A panicking handler is
// recovered and counted; it never reaches the publisher.
//
//	bus := event.NewBus()
//	sub, err := bus.SubscribeFunc("gesture.swipe", func(ctx context.Context, ev any) error {
//	    log.Printf("swipe: %v", ev)
//	    return nil
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer bus.Unsubscribe(sub)
package event
