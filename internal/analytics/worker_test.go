package analytics

import (
	"context"
	"sync"
	"testing"
	"time"

	"portfolio-live/internal/models"
)

type captureStore struct {
	mu      sync.Mutex
	batches [][]models.AnalyticsEvent
}

func (s *captureStore) AppendAnalyticsEvents(events []models.AnalyticsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := make([]models.AnalyticsEvent, len(events))
	copy(batch, events)
	s.batches = append(s.batches, batch)
	return nil
}

func (s *captureStore) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, batch := range s.batches {
		total += len(batch)
	}
	return total
}

func TestWorkerFlushesFullBatches(t *testing.T) {
	store := &captureStore{}
	queue := NewMemoryQueue(16)
	worker := NewWorker(store, queue, nil, WithBatchSize(2), WithFlushInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(done)
	}()

	// Let the worker subscribe before publishing.
	time.Sleep(50 * time.Millisecond)
	for i := 0; i < 4; i++ {
		if err := queue.Publish(context.Background(), models.AnalyticsEvent{Name: "page_view"}); err != nil {
			t.Fatalf("Publish returned error: %v", err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for store.total() < 4 {
		if time.Now().After(deadline) {
			t.Fatalf("expected 4 persisted events, got %d", store.total())
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestWorkerFlushesPendingOnShutdown(t *testing.T) {
	store := &captureStore{}
	queue := NewMemoryQueue(16)
	worker := NewWorker(store, queue, nil, WithBatchSize(100), WithFlushInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if err := queue.Publish(context.Background(), models.AnalyticsEvent{Name: "click"}); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
	if store.total() != 1 {
		t.Fatalf("expected pending event persisted on shutdown, got %d", store.total())
	}
}

func TestWorkerWithoutQueueReturnsImmediately(t *testing.T) {
	worker := NewWorker(&captureStore{}, nil, nil)
	done := make(chan struct{})
	go func() {
		worker.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker without queue did not return")
	}
}
