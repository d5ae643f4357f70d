package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"portfolio-live/internal/api"
)

// rateLimitMessage matches the body the frontend expects on a 429.
const rateLimitMessage = "Muitas requisições deste IP, tente novamente em alguns minutos."

// RateLimitConfig bounds how many requests one client IP may issue inside a
// fixed wall-clock window. MaxRequests <= 0 disables limiting.
type RateLimitConfig struct {
	Window        time.Duration
	MaxRequests   int
	RedisAddr     string
	RedisPassword string
	RedisTimeout  time.Duration
}

// counterStore increments the hit counter for a key, resetting it when the
// window elapses.
type counterStore interface {
	Incr(key string, window time.Duration) (int64, error)
}

type rateLimiter struct {
	window time.Duration
	max    int
	store  counterStore
}

func newRateLimiter(cfg RateLimitConfig) (*rateLimiter, error) {
	if cfg.MaxRequests <= 0 {
		return nil, nil
	}
	window := cfg.Window
	if window <= 0 {
		window = 15 * time.Minute
	}
	rl := &rateLimiter{window: window, max: cfg.MaxRequests}
	if cfg.RedisAddr != "" {
		timeout := cfg.RedisTimeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		rl.store = newRedisCounterStore(cfg.RedisAddr, cfg.RedisPassword, timeout)
	} else {
		rl.store = newMemoryCounterStore()
	}
	return rl, nil
}

func (rl *rateLimiter) Allow(ip string) (bool, error) {
	if rl == nil {
		return true, nil
	}
	if ip == "" {
		ip = "unknown"
	}
	count, err := rl.store.Incr(fmt.Sprintf("portfolio:ratelimit:%s", ip), rl.window)
	if err != nil {
		return false, err
	}
	return count <= int64(rl.max), nil
}

func rateLimitMiddleware(rl *rateLimiter, logger *slog.Logger, next http.Handler) http.Handler {
	if rl == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, err := rl.Allow(extractClientIP(r))
		if err != nil {
			// A broken counter store must not take the site down.
			if logger != nil {
				logger.Error("rate limiter failure", "error", err)
			}
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			writeMiddlewareError(w, http.StatusTooManyRequests, api.CodeRateLimitExceeded, rateLimitMessage)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type windowCounter struct {
	count   int64
	resetAt time.Time
}

type memoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]*windowCounter
}

func newMemoryCounterStore() *memoryCounterStore {
	return &memoryCounterStore{counters: make(map[string]*windowCounter)}
}

func (s *memoryCounterStore) Incr(key string, window time.Duration) (int64, error) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	counter, ok := s.counters[key]
	if !ok || now.After(counter.resetAt) {
		counter = &windowCounter{resetAt: now.Add(window)}
		s.counters[key] = counter
	}
	counter.count++
	s.cleanupLocked(now)
	return counter.count, nil
}

func (s *memoryCounterStore) cleanupLocked(now time.Time) {
	if len(s.counters) < 1024 {
		return
	}
	for key, counter := range s.counters {
		if now.After(counter.resetAt) {
			delete(s.counters, key)
		}
	}
}
