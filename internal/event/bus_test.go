package event

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/gesture/internal/event/topic"
)

type testEvent struct {
	topic topic.Topic
	value int
}

func (e testEvent) EventTopic() topic.Topic { return e.topic }

func TestBus_PublishMatchesPattern(t *testing.T) {
	bus := NewBus()

	var got []int
	_, err := bus.SubscribeFunc("gesture.drag.*", func(_ context.Context, ev any) error {
		got = append(got, ev.(testEvent).value)
		return nil
	})
	if err != nil {
		t.Fatalf("SubscribeFunc() error = %v", err)
	}

	ctx := context.Background()
	_ = bus.Publish(ctx, testEvent{topic: "gesture.drag.start", value: 1})
	_ = bus.Publish(ctx, testEvent{topic: "gesture.swipe", value: 2})
	_ = bus.Publish(ctx, testEvent{topic: "gesture.drag.end", value: 3})

	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("delivered = %v, want [1 3]", got)
	}
}

func TestBus_DeliveryOrder(t *testing.T) {
	bus := NewBus()

	var order []string
	for _, name := range []string{"a", "b", "c"} {
		name := name
		_, _ = bus.SubscribeFunc("**", func(context.Context, any) error {
			order = append(order, name)
			return nil
		})
	}

	_ = bus.Publish(context.Background(), testEvent{topic: "gesture.swipe"})

	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Errorf("order = %v", order)
	}
}

func TestBus_InvalidInput(t *testing.T) {
	bus := NewBus()

	if err := bus.Publish(context.Background(), struct{}{}); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("Publish(no topic) = %v, want ErrInvalidEvent", err)
	}
	if _, err := bus.Subscribe("", HandlerFunc(func(context.Context, any) error { return nil })); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe(empty) = %v, want ErrInvalidTopic", err)
	}
	if _, err := bus.Subscribe("gesture.swipe", nil); !errors.Is(err, ErrNilHandler) {
		t.Errorf("Subscribe(nil) = %v, want ErrNilHandler", err)
	}
	if err := bus.Unsubscribe(nil); !errors.Is(err, ErrSubscriptionNotFound) {
		t.Errorf("Unsubscribe(nil) = %v", err)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()

	calls := 0
	sub, _ := bus.SubscribeFunc("gesture.swipe", func(context.Context, any) error {
		calls++
		return nil
	})

	_ = bus.Publish(context.Background(), testEvent{topic: "gesture.swipe"})
	if err := bus.Unsubscribe(sub); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}
	_ = bus.Publish(context.Background(), testEvent{topic: "gesture.swipe"})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if sub.IsActive() {
		t.Error("subscription still active")
	}
	if err := bus.Unsubscribe(sub); !errors.Is(err, ErrSubscriptionNotFound) {
		t.Errorf("second Unsubscribe() = %v", err)
	}
}

func TestBus_PanicAndErrorAreContained(t *testing.T) {
	var reported []error
	bus := NewBus(WithErrorHandler(func(_ any, err error) {
		reported = append(reported, err)
	}))

	boom := errors.New("boom")
	_, _ = bus.SubscribeFunc("gesture.swipe", func(context.Context, any) error { panic("bad handler") })
	_, _ = bus.SubscribeFunc("gesture.swipe", func(context.Context, any) error { return boom })
	reached := false
	_, _ = bus.SubscribeFunc("gesture.swipe", func(context.Context, any) error {
		reached = true
		return nil
	})

	if err := bus.Publish(context.Background(), testEvent{topic: "gesture.swipe"}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if !reached {
		t.Error("handler after panic was not reached")
	}
	if len(reported) != 2 {
		t.Fatalf("reported %d errors, want 2", len(reported))
	}
	if !errors.Is(reported[0], ErrHandlerPanic) {
		t.Errorf("first error = %v, want panic", reported[0])
	}
	if !errors.Is(reported[1], boom) {
		t.Errorf("second error = %v, want boom", reported[1])
	}

	stats := bus.Stats()
	if stats.HandlerPanics != 1 || stats.HandlerErrors != 1 || stats.Delivered != 1 || stats.Published != 1 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestBus_UnsubscribeDuringPublish(t *testing.T) {
	bus := NewBus()

	var second *Subscription
	secondCalls := 0
	_, _ = bus.SubscribeFunc("gesture.swipe", func(context.Context, any) error {
		return bus.Unsubscribe(second)
	})
	second, _ = bus.SubscribeFunc("gesture.swipe", func(context.Context, any) error {
		secondCalls++
		return nil
	})

	_ = bus.Publish(context.Background(), testEvent{topic: "gesture.swipe"})
	if secondCalls != 0 {
		t.Errorf("unsubscribed handler called %d times", secondCalls)
	}
}
