package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func receive[T any](t *testing.T, ch <-chan Event[T]) Event[T] {
	t.Helper()
	select {
	case evt, ok := <-ch:
		require.True(t, ok, "channel closed")
		return evt
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event[T]{}
	}
}

func TestBrokerDeliversToAllSubscribers(t *testing.T) {
	b := NewBroker[string](4)
	defer b.Close()

	ctx := context.Background()
	first := b.Subscribe(ctx)
	second := b.Subscribe(ctx)

	b.Publish(AppendedEvent, "hello")

	require.Equal(t, "hello", receive(t, first).Payload)
	evt := receive(t, second)
	require.Equal(t, "hello", evt.Payload)
	require.Equal(t, AppendedEvent, evt.Type)
}

func TestBrokerDropsWhenSubscriberFull(t *testing.T) {
	b := NewBroker[int](1)
	defer b.Close()

	ch := b.Subscribe(context.Background())
	b.Publish(UpdatedEvent, 1)
	b.Publish(UpdatedEvent, 2) // dropped, buffer holds one

	require.Equal(t, 1, receive(t, ch).Payload)
	select {
	case evt := <-ch:
		t.Fatalf("unexpected event: %+v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBrokerSubscriberCancellation(t *testing.T) {
	b := NewBroker[int](4)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := b.Subscribe(ctx)
	cancel()

	// The channel closes once the cancellation is observed.
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	// Publishing after the subscriber left must not panic.
	b.Publish(UpdatedEvent, 9)
}

func TestBrokerClose(t *testing.T) {
	b := NewBroker[int](4)
	ch := b.Subscribe(context.Background())

	b.Close()
	_, ok := <-ch
	require.False(t, ok)

	// Idempotent, and late subscribers get an already-closed channel.
	b.Close()
	late := b.Subscribe(context.Background())
	_, ok = <-late
	require.False(t, ok)
}
