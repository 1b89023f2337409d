package event

import (
	"context"

	"github.com/dshills/gesture/internal/event/topic"
)

// TopicProvider is implemented by events that know their topic.
type TopicProvider interface {
	EventTopic() topic.Topic
}

// Handler processes an event. The event is type-erased; handlers type-assert.
type Handler interface {
	Handle(ctx context.Context, event any) error
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(ctx context.Context, event any) error

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(ctx context.Context, event any) error {
	return f(ctx, event)
}

// ErrorHandler is told about handler errors and recovered panics.
type ErrorHandler func(event any, err error)

// Stats contains bus counters.
type Stats struct {
	Published     uint64
	Delivered     uint64
	HandlerErrors uint64
	HandlerPanics uint64
	Subscriptions int
}
