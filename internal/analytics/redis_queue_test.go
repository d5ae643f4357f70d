package analytics

import (
	"context"
	"testing"
	"time"

	"portfolio-live/internal/models"
	"portfolio-live/internal/testsupport/redisstub"
)

func TestRedisQueuePublishConsume(t *testing.T) {
	srv, err := redisstub.Start(redisstub.Options{Password: "secret"})
	if err != nil {
		t.Fatalf("failed to start redis stub: %v", err)
	}
	t.Cleanup(func() {
		_ = srv.Close()
	})

	queue, err := NewRedisQueue(RedisQueueConfig{
		Addr:         srv.Addr(),
		Password:     "secret",
		Stream:       "test-stream",
		Group:        "test-group",
		BlockTimeout: 50 * time.Millisecond,
		Buffer:       4,
	})
	if err != nil {
		t.Fatalf("create queue: %v", err)
	}

	sub := queue.Subscribe()
	t.Cleanup(sub.Close)

	event := models.AnalyticsEvent{
		ID:         "evt-1",
		Name:       "page_view",
		Path:       "/projects",
		OccurredAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := queue.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case got := <-sub.Events():
		if got.ID != event.ID || got.Name != event.Name || got.Path != event.Path {
			t.Fatalf("unexpected event: %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestRedisQueueRequeuesOnCancellation(t *testing.T) {
	srv, err := redisstub.Start(redisstub.Options{Password: "secret"})
	if err != nil {
		t.Fatalf("failed to start redis stub: %v", err)
	}
	t.Cleanup(func() {
		_ = srv.Close()
	})

	queue, err := NewRedisQueue(RedisQueueConfig{
		Addr:         srv.Addr(),
		Password:     "secret",
		Stream:       "test-stream",
		Group:        "test-group",
		BlockTimeout: 50 * time.Millisecond,
		Buffer:       1,
	})
	if err != nil {
		t.Fatalf("create queue: %v", err)
	}

	sub := queue.Subscribe()

	event1 := models.AnalyticsEvent{ID: "evt-1", Name: "page_view", Path: "/"}
	event2 := models.AnalyticsEvent{ID: "evt-2", Name: "page_view", Path: "/contact"}

	if err := queue.Publish(context.Background(), event1); err != nil {
		t.Fatalf("publish event1: %v", err)
	}
	if err := queue.Publish(context.Background(), event2); err != nil {
		t.Fatalf("publish event2: %v", err)
	}

	time.Sleep(150 * time.Millisecond)

	sub.Close()

	var drained []models.AnalyticsEvent
	for evt := range sub.Events() {
		drained = append(drained, evt)
	}
	if len(drained) != 1 {
		t.Fatalf("expected 1 drained event, got %d", len(drained))
	}
	if drained[0].ID != event1.ID {
		t.Fatalf("unexpected drained event: %+v", drained[0])
	}

	replacement := queue.Subscribe()
	t.Cleanup(replacement.Close)

	select {
	case got := <-replacement.Events():
		if got.ID != event2.ID {
			t.Fatalf("unexpected event: %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for requeued event")
	}
}

func TestRedisSubscriptionCloseWithFullBuffer(t *testing.T) {
	srv, err := redisstub.Start(redisstub.Options{})
	if err != nil {
		t.Fatalf("failed to start redis stub: %v", err)
	}
	t.Cleanup(func() {
		_ = srv.Close()
	})

	queue, err := NewRedisQueue(RedisQueueConfig{
		Addr:         srv.Addr(),
		Stream:       "test-stream",
		Group:        "test-group",
		BlockTimeout: 50 * time.Millisecond,
		Buffer:       1,
	})
	if err != nil {
		t.Fatalf("create queue: %v", err)
	}

	sub := queue.Subscribe()
	for i := 0; i < 3; i++ {
		event := models.AnalyticsEvent{ID: "evt", Name: "page_view", Path: "/"}
		if err := queue.Publish(context.Background(), event); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	// Let the read loop fill the buffer and park on the next send before
	// closing under it.
	time.Sleep(150 * time.Millisecond)

	closed := make(chan struct{})
	go func() {
		sub.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}

	// Once Close has returned the loop has exited and the channel is closed;
	// draining must terminate.
	for range sub.Events() {
	}
}
