package queue

import (
	"context"
)

// MessageInterface defines the interface for queue messages
// This enables better testability by allowing mock implementations
type MessageInterface interface {
	Ack() error
	Nack(requeue bool) error
	GetEvent() *Event
}

// Publisher sends events about committed changes
type Publisher interface {
	// Publish sends the event. Callers treat failures as non-fatal.
	Publish(ctx context.Context, event *Event) error

	// Close closes the publisher connection
	Close() error
}

// Subscriber receives events
type Subscriber interface {
	// Consume returns a channel of messages matching bindingKey ("#" for all).
	// Both channels are closed when ctx is cancelled or the connection is lost.
	Consume(ctx context.Context, bindingKey string) (<-chan MessageInterface, <-chan error, error)

	// HealthCheck verifies the connection is healthy
	HealthCheck(ctx context.Context) error
}

// NopPublisher discards every event. Used when no broker is configured.
type NopPublisher struct{}

// Publish discards the event
func (NopPublisher) Publish(ctx context.Context, event *Event) error { return nil }

// Close does nothing
func (NopPublisher) Close() error { return nil }

var _ Publisher = NopPublisher{}
