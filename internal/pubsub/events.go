// Package pubsub provides a generic publish/subscribe event system.
// The history manager publishes table changes through it and the logger
// publishes log lines for the debug overlay.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	// CreatedEvent announces a new item, such as a log line.
	CreatedEvent EventType = "created"

	// History transitions.
	PerformedEvent EventType = "performed"
	UndoneEvent    EventType = "undone"
	RedoneEvent    EventType = "redone"
	ResetEvent     EventType = "reset"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
