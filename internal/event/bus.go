package event

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/dshills/gesture/internal/event/topic"
)

// Bus is the gesture event bus.
type Bus interface {
	Publish(ctx context.Context, event any) error
	Subscribe(pattern topic.Topic, handler Handler) (*Subscription, error)
	SubscribeFunc(pattern topic.Topic, fn HandlerFunc) (*Subscription, error)
	Unsubscribe(sub *Subscription) error
	Stats() Stats
}

// Subscription is a registered handler for a topic pattern.
type Subscription struct {
	id      string
	pattern topic.Topic
	handler Handler
	active  atomic.Bool
}

// ID returns the subscription identifier.
func (s *Subscription) ID() string { return s.id }

// Topic returns the subscribed pattern.
func (s *Subscription) Topic() topic.Topic { return s.pattern }

// IsActive reports whether the subscription still receives events.
func (s *Subscription) IsActive() bool { return s.active.Load() }

// BusOption configures a Bus.
type BusOption func(*bus)

// WithErrorHandler installs a callback for handler errors and panics.
func WithErrorHandler(h ErrorHandler) BusOption {
	return func(b *bus) {
		b.onError = h
	}
}

type bus struct {
	mu     sync.RWMutex
	subs   []*Subscription
	nextID uint64

	onError ErrorHandler

	published atomic.Uint64
	delivered atomic.Uint64
	errors    atomic.Uint64
	panics    atomic.Uint64
}

// NewBus creates a synchronous bus.
func NewBus(opts ...BusOption) Bus {
	b := &bus{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish delivers event to every matching subscription before returning.
// Handler errors are reported to the error handler, not returned.
func (b *bus) Publish(ctx context.Context, event any) error {
	tp, ok := event.(TopicProvider)
	if !ok || !tp.EventTopic().IsValid() {
		return ErrInvalidEvent
	}
	eventTopic := tp.EventTopic()

	// Snapshot so handlers may subscribe or unsubscribe while we deliver.
	b.mu.RLock()
	subs := make([]*Subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		if eventTopic.Matches(sub.pattern) {
			subs = append(subs, sub)
		}
	}
	b.mu.RUnlock()

	b.published.Add(1)
	for _, sub := range subs {
		if !sub.IsActive() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.deliver(ctx, sub, event); err != nil {
			if b.onError != nil {
				b.onError(event, err)
			}
			continue
		}
		b.delivered.Add(1)
	}
	return nil
}

func (b *bus) deliver(ctx context.Context, sub *Subscription, event any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.panics.Add(1)
			err = &PanicError{
				SubscriptionID: sub.id,
				Topic:          fmt.Sprint(event.(TopicProvider).EventTopic()),
				Value:          r,
			}
		}
	}()
	if err := sub.handler.Handle(ctx, event); err != nil {
		b.errors.Add(1)
		return fmt.Errorf("subscription %s: %w", sub.id, err)
	}
	return nil
}

// Subscribe registers handler for events whose topic matches pattern.
func (b *bus) Subscribe(pattern topic.Topic, handler Handler) (*Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if !pattern.IsValid() {
		return nil, ErrInvalidTopic
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{
		id:      "sub-" + strconv.FormatUint(b.nextID, 10),
		pattern: pattern,
		handler: handler,
	}
	sub.active.Store(true)
	b.subs = append(b.subs, sub)
	return sub, nil
}

// SubscribeFunc is Subscribe for a plain function.
func (b *bus) SubscribeFunc(pattern topic.Topic, fn HandlerFunc) (*Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return b.Subscribe(pattern, fn)
}

// Unsubscribe removes sub. It takes effect immediately, even for a
// Publish already in progress.
func (b *bus) Unsubscribe(sub *Subscription) error {
	if sub == nil {
		return ErrSubscriptionNotFound
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s == sub {
			s.active.Store(false)
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return nil
		}
	}
	return ErrSubscriptionNotFound
}

// Stats returns current counters.
func (b *bus) Stats() Stats {
	b.mu.RLock()
	n := len(b.subs)
	b.mu.RUnlock()

	return Stats{
		Published:     b.published.Load(),
		Delivered:     b.delivered.Load(),
		HandlerErrors: b.errors.Load(),
		HandlerPanics: b.panics.Load(),
		Subscriptions: n,
	}
}
