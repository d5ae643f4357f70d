package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// tickerFactory yields a tick channel and a release function, letting tests
// drive the purge loop without real timers.
type tickerFactory func(time.Duration) (<-chan time.Time, func())

func realTicker(interval time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(interval)
	return t.C, t.Stop
}

// StartPurgeLoop removes expired sessions every interval until ctx is
// cancelled or the returned stop function is called. Stop blocks until the
// loop has exited and is safe to call more than once. A purge failure is
// logged and the loop keeps running.
func (m *SessionManager) StartPurgeLoop(ctx context.Context, logger *slog.Logger, interval time.Duration) func() {
	return m.startPurgeLoop(ctx, logger, interval, realTicker)
}

func (m *SessionManager) startPurgeLoop(ctx context.Context, logger *slog.Logger, interval time.Duration, newTicker tickerFactory) func() {
	if m == nil || interval <= 0 {
		return func() {}
	}
	loopCtx, cancel := context.WithCancel(ctx)
	ticks, release := newTicker(interval)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer release()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticks:
				if err := m.PurgeExpired(); err != nil && logger != nil {
					logger.Error("failed to purge expired sessions", "error", err)
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(cancel)
		<-done
	}
}
