package pubsub

import (
	"context"
	"sync"
)

const defaultBuffer = 64

// Broker fans events out to subscribers without ever blocking the publisher.
// A subscriber that cannot keep up misses events rather than stalling the
// producer; consumers that need full fidelity should pull a fresh snapshot
// from the producer when they receive any event.
type Broker[T any] struct {
	mu     sync.RWMutex
	subs   map[chan Event[T]]struct{}
	closed bool
	buffer int
}

// NewBroker returns a broker whose subscriber channels hold up to buffer
// pending events. A non-positive buffer selects the default.
func NewBroker[T any](buffer int) *Broker[T] {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Broker[T]{
		subs:   make(map[chan Event[T]]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers for future events. The returned channel closes when ctx
// is done or the broker is closed.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event[T], b.buffer)
	if b.closed {
		close(ch)
		return ch
	}
	b.subs[ch] = struct{}{}

	go func() {
		<-ctx.Done()

		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[ch]; !ok {
			return
		}
		delete(b.subs, ch)
		close(ch)
	}()

	return ch
}

// Publish delivers payload to every current subscriber, best effort.
func (b *Broker[T]) Publish(t EventType, payload T) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	targets := make([]chan Event[T], 0, len(b.subs))
	for ch := range b.subs {
		targets = append(targets, ch)
	}
	b.mu.RUnlock()

	evt := Event[T]{Type: t, Payload: payload}
	for _, ch := range targets {
		select {
		case ch <- evt:
		default:
			// Subscriber buffer full; it will resync from a snapshot.
		}
	}
}

// Close shuts the broker down and closes all subscriber channels.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		close(ch)
	}
	clear(b.subs)
}
