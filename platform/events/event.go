// Package events defines the in-process event bus contract used to keep
// modules decoupled. Concrete event types live with the domain that emits
// them; this package only carries the plumbing.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event published on the bus.
type Event interface {
	// EventName identifies the event type for subscription routing.
	EventName() string
	// OccurredAt reports when the event happened.
	OccurredAt() time.Time
}

// BaseEvent carries the timestamp shared by all events. Embed it and
// construct with NewBaseEvent.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a base event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events of a single type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function into a Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus publishes domain events to registered handlers.
type Bus interface {
	// Publish dispatches asynchronously; handler errors are logged by the
	// bus implementation, not returned.
	Publish(ctx context.Context, event Event)

	// PublishSync dispatches and waits for every handler, aggregating
	// their errors.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler keyed by Event.EventName().
	Subscribe(eventName string, handler Handler)
}
