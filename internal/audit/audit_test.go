package audit

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPersistsEmittedEvents(t *testing.T) {
	pub := NewPublisher(8, slog.Default())
	store := NewInMemoryStore()
	worker := NewWorker(store, pub.Inbox(), slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()

	pub.Emit(ctx, Event{Action: ActionApplicationSubmitted, ActorID: "student-1", EntityID: "app-1"})
	pub.Emit(ctx, Event{Action: ActionDocumentVerified, ActorID: "admin-1", EntityID: "doc-1"})

	require.Eventually(t, func() bool {
		events, err := store.ListRecent(context.Background(), 0)
		return err == nil && len(events) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done

	events, err := store.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	for _, e := range events {
		assert.False(t, e.Timestamp.IsZero(), "emit stamps missing timestamps")
	}
}

func TestEmitDropsWhenInboxFull(t *testing.T) {
	// No worker draining, two slots only.
	pub := NewPublisher(2, slog.Default())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		pub.Emit(ctx, Event{Action: ActionUserRegistered, EntityID: "user-1"})
	}

	assert.Len(t, pub.inbox, 2, "overflow is dropped, never blocks")
}

func TestEmitNilPublisherIsSafe(t *testing.T) {
	var pub *Publisher
	pub.Emit(context.Background(), Event{Action: ActionUserDeleted})
}

func TestListRecentOrdersNewestFirst(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, Event{
			Action:    ActionApplicationCreated,
			EntityID:  "app",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	events, err := store.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].Timestamp.After(events[i-1].Timestamp))
	}
}
