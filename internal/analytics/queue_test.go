package analytics

import (
	"context"
	"testing"
	"time"

	"portfolio-live/internal/models"
)

func TestMemoryQueueFanOut(t *testing.T) {
	queue := NewMemoryQueue(4)
	first := queue.Subscribe()
	second := queue.Subscribe()
	t.Cleanup(first.Close)
	t.Cleanup(second.Close)

	event := models.AnalyticsEvent{Name: "page_view", Path: "/"}
	if err := queue.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	for _, sub := range []Subscription{first, second} {
		select {
		case got := <-sub.Events():
			if got.Name != "page_view" || got.Path != "/" {
				t.Fatalf("unexpected event %+v", got)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestMemoryQueueRejectsUnnamedEvents(t *testing.T) {
	queue := NewMemoryQueue(1)
	if err := queue.Publish(context.Background(), models.AnalyticsEvent{}); err == nil {
		t.Fatal("expected error for event without name")
	}
}

func TestMemoryQueueDropsWhenSubscriberIsFull(t *testing.T) {
	queue := NewMemoryQueue(1)
	sub := queue.Subscribe()
	t.Cleanup(sub.Close)

	for i := 0; i < 3; i++ {
		if err := queue.Publish(context.Background(), models.AnalyticsEvent{Name: "page_view"}); err != nil {
			t.Fatalf("Publish returned error: %v", err)
		}
	}

	received := 0
	for {
		select {
		case <-sub.Events():
			received++
		case <-time.After(100 * time.Millisecond):
			if received != 1 {
				t.Fatalf("expected 1 buffered event, got %d", received)
			}
			return
		}
	}
}

func TestMemoryQueueCloseUnsubscribes(t *testing.T) {
	queue := NewMemoryQueue(1)
	sub := queue.Subscribe()
	sub.Close()
	sub.Close()

	if err := queue.Publish(context.Background(), models.AnalyticsEvent{Name: "page_view"}); err != nil {
		t.Fatalf("publish after close returned error: %v", err)
	}
	if _, ok := <-sub.Events(); ok {
		t.Fatal("expected closed channel")
	}
}
