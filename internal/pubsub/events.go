package pubsub

import "context"

// EventType identifies what happened to the payload carried by an event.
type EventType string

const (
	// AppendedEvent signals that a new item entered a stream or list.
	AppendedEvent EventType = "appended"
	// UpdatedEvent signals that existing state changed in place.
	UpdatedEvent EventType = "updated"
	// ResetEvent signals that the producer replayed or replaced its state
	// and subscribers should drop any derived caches.
	ResetEvent EventType = "reset"
)

// Event wraps a payload published through a Broker.
type Event[T any] struct {
	Type    EventType
	Payload T
}

// Subscriber is the read side of a Broker.
type Subscriber[T any] interface {
	Subscribe(context.Context) <-chan Event[T]
}

// Publisher is the write side of a Broker.
type Publisher[T any] interface {
	Publish(EventType, T)
}
