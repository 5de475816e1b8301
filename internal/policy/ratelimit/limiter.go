// Package ratelimit spaces outbound search requests per host with a token
// bucket, so a batch never hits the search engine faster than configured.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/JakeFAU/naver-rank-tracker/internal/metrics"
)

// recordThreshold separates real waits from immediate grants in metrics.
const recordThreshold = time.Millisecond

// Config mirrors the serp rate settings.
type Config struct {
	// RequestsPerSecond of zero or less disables spacing.
	RequestsPerSecond float64
	Burst             int
}

// Limiter hands out one token bucket per host.
type Limiter struct {
	every rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// New creates a Limiter from cfg.
func New(cfg Config) *Limiter {
	every := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		every = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Limiter{
		every:   every,
		burst:   max(cfg.Burst, 1),
		buckets: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until the host of target may be queried again or ctx ends.
func (l *Limiter) Wait(ctx context.Context, target string) error {
	host := metrics.SanitizeSite(target)
	bucket := l.bucket(host)

	start := time.Now()
	if err := bucket.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait for %s: %w", host, err)
	}
	if waited := time.Since(start); waited > recordThreshold {
		metrics.ObserveRateLimitDelay(host, waited)
	}
	return nil
}

func (l *Limiter) bucket(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[host]
	if !ok {
		b = rate.NewLimiter(l.every, l.burst)
		l.buckets[host] = b
	}
	return b
}
