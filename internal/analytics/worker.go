package analytics

import (
	"context"
	"log/slog"
	"time"

	"portfolio-live/internal/models"
)

// EventStore is the slice of the datastore the worker needs.
type EventStore interface {
	AppendAnalyticsEvents(events []models.AnalyticsEvent) error
}

const (
	defaultFlushInterval = 2 * time.Second
	defaultBatchSize     = 64
)

// Worker consumes queue events and persists them in batches so a burst of
// page views does not turn into a burst of datastore writes.
type Worker struct {
	queue         Queue
	store         EventStore
	logger        *slog.Logger
	flushInterval time.Duration
	batchSize     int
}

// WorkerOption adjusts worker batching behaviour.
type WorkerOption func(*Worker)

// WithFlushInterval overrides how long a partial batch may sit before being
// written out.
func WithFlushInterval(interval time.Duration) WorkerOption {
	return func(w *Worker) {
		if interval > 0 {
			w.flushInterval = interval
		}
	}
}

// WithBatchSize overrides the number of events that forces an immediate flush.
func WithBatchSize(size int) WorkerOption {
	return func(w *Worker) {
		if size > 0 {
			w.batchSize = size
		}
	}
}

// NewWorker prepares a worker that persists analytics events delivered via the
// queue.
func NewWorker(store EventStore, queue Queue, logger *slog.Logger, opts ...WorkerOption) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	worker := &Worker{
		queue:         queue,
		store:         store,
		logger:        logger,
		flushInterval: defaultFlushInterval,
		batchSize:     defaultBatchSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(worker)
		}
	}
	return worker
}

// Run blocks until the context is cancelled, persisting batches as they fill
// or as the flush interval elapses. Pending events are flushed on shutdown.
func (w *Worker) Run(ctx context.Context) {
	if w.queue == nil || w.store == nil {
		return
	}
	sub := w.queue.Subscribe()
	defer sub.Close()

	ticker := time.NewTicker(w.flushInterval)
	defer ticker.Stop()

	batch := make([]models.AnalyticsEvent, 0, w.batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := w.store.AppendAnalyticsEvents(batch); err != nil {
			w.logger.Error("failed to persist analytics events", "count", len(batch), "error", err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case <-ticker.C:
			flush()
		case event, ok := <-sub.Events():
			if !ok {
				flush()
				return
			}
			batch = append(batch, event)
			if len(batch) >= w.batchSize {
				flush()
			}
		}
	}
}
