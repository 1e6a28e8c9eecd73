package vault

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHubDropsForSlowSubscribers(t *testing.T) {
	hub := NewHub(1)
	sub := hub.Subscribe()

	hub.Publish(&Event{Seq: 1}, &Event{Seq: 2})

	require.Equal(t, uint64(1), (<-sub.C).Seq)
	require.Equal(t, uint64(1), sub.Dropped.Load())
	require.Equal(t, uint64(1), hub.Dropped.Load())

	hub.Unsubscribe(sub)
	_, ok := <-sub.C
	require.False(t, ok)
	require.Zero(t, hub.Len())

	// Idempotent
	hub.Unsubscribe(sub)
}

func TestHubLosslessUnblocksOnUnsubscribe(t *testing.T) {
	hub := NewHub(0)
	sub := hub.SubscribeLossless()

	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Publish(&Event{Seq: 1})
	}()

	select {
	case event := <-sub.C:
		require.Equal(t, uint64(1), event.Seq)
	case <-time.After(5 * time.Second):
		t.Fatal("event not delivered")
	}
	<-done

	blocked := make(chan struct{})
	go func() {
		defer close(blocked)
		hub.Publish(&Event{Seq: 2})
	}()

	hub.Unsubscribe(sub)

	select {
	case <-blocked:
	case <-time.After(5 * time.Second):
		t.Fatal("publisher still blocked")
	}
	require.Zero(t, hub.Dropped.Load())
}

func TestHubClose(t *testing.T) {
	hub := NewHub(10)
	a := hub.Subscribe()
	b := hub.SubscribeLossless()
	require.Equal(t, 2, hub.Len())

	hub.Close()
	require.Zero(t, hub.Len())

	_, ok := <-a.C
	require.False(t, ok)
	_, ok = <-b.C
	require.False(t, ok)
}
