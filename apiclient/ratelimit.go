package apiclient

import (
	"context"
	"sync"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/time/rate"
)

// CategoryConfig is the token-bucket configuration for one rate-limit category.
type CategoryConfig struct {
	// Capacity is the burst size: the most acquisitions the bucket allows
	// back to back from a full state.
	Capacity int

	// RefillPerSecond is the steady-state rate at which tokens accrue.
	RefillPerSecond float64
}

// RateLimiter gates outgoing requests per category so that the harness never
// exceeds the target API's documented limits, even with many virtual users
// sharing one session. Buckets are created lazily on first use and live for
// the session; the set of categories is small and fixed so they are never
// evicted.
type RateLimiter struct {
	configs map[string]CategoryConfig
	logger  hclog.Logger

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

func newRateLimiter(configs map[string]CategoryConfig, logger hclog.Logger) *RateLimiter {
	return &RateLimiter{
		configs: configs,
		logger:  logger.Named("ratelimit"),
		buckets: make(map[string]*rate.Limiter),
	}
}

// Acquire blocks until a token is available for the category, the context is
// cancelled, or the context deadline makes the wait pointless. A retried call
// acquires again, so each attempt consumes a token.
func (rl *RateLimiter) Acquire(ctx context.Context, category string) error {
	bucket := rl.bucket(category)
	if err := bucket.Wait(ctx); err != nil {
		if ctx.Err() == context.Canceled {
			return ctx.Err()
		}
		return &RateLimitTimeoutError{Category: category, Err: err}
	}
	return nil
}

func (rl *RateLimiter) bucket(category string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if b, ok := rl.buckets[category]; ok {
		return b
	}
	var b *rate.Limiter
	if cfg, ok := rl.configs[category]; ok && cfg.Capacity > 0 && cfg.RefillPerSecond > 0 {
		b = rate.NewLimiter(rate.Limit(cfg.RefillPerSecond), cfg.Capacity)
		rl.logger.Debug("created bucket", "category", category,
			"capacity", cfg.Capacity, "refillPerSecond", cfg.RefillPerSecond)
	} else {
		// Unconfigured resource families must not block testing.
		b = rate.NewLimiter(rate.Inf, 1)
		rl.logger.Debug("created permissive bucket for unconfigured category", "category", category)
	}
	rl.buckets[category] = b
	return b
}
