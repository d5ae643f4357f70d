package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"portfolio-live/internal/storage"
)

// UploadProcessorConfig configures post-upload processing.
type UploadProcessorConfig struct {
	Store       storage.Repository
	UploadsDir  string
	Concurrency int64
	Logger      *slog.Logger
}

// UploadProcessor verifies uploaded files in the background and marks the
// corresponding asset records processed. Concurrency is bounded so a burst of
// uploads cannot exhaust file handles.
type UploadProcessor struct {
	store      storage.Repository
	uploadsDir string
	sem        *semaphore.Weighted
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

const defaultUploadConcurrency = 2

func NewUploadProcessor(cfg UploadProcessorConfig) *UploadProcessor {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultUploadConcurrency
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &UploadProcessor{
		store:      cfg.Store,
		uploadsDir: cfg.UploadsDir,
		sem:        semaphore.NewWeighted(concurrency),
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Enqueue schedules background processing for the asset. It returns
// immediately; the work happens on its own goroutine once a slot frees up.
func (p *UploadProcessor) Enqueue(id string) {
	if p == nil || strings.TrimSpace(id) == "" {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.sem.Acquire(p.ctx, 1); err != nil {
			return
		}
		defer p.sem.Release(1)
		p.process(id)
	}()
}

// Shutdown stops accepting work and waits for in-flight processing.
func (p *UploadProcessor) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	p.cancel()
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *UploadProcessor) process(id string) {
	if p.store == nil {
		return
	}
	asset, ok := p.store.GetMediaAsset(id)
	if !ok || asset.Processed {
		return
	}
	path := filepath.Join(p.uploadsDir, asset.FileName)
	file, err := os.Open(path)
	if err != nil {
		p.logger.Error("uploaded file missing", "asset_id", id, "path", path, "error", err)
		return
	}
	defer file.Close()

	digest := sha256.New()
	if _, err := io.Copy(digest, file); err != nil {
		p.logger.Error("failed to checksum upload", "asset_id", id, "error", err)
		return
	}

	if _, err := p.store.MarkMediaAssetProcessed(id); err != nil {
		p.logger.Error("failed to mark asset processed", "asset_id", id, "error", err)
		return
	}
	p.logger.Info("upload processed", "asset_id", id, "sha256", hex.EncodeToString(digest.Sum(nil)))
}
