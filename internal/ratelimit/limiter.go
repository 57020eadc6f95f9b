package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/policynav/policynav/pkg/errors"
)

// Limiter applies a token-bucket limit per key (email, IP, endpoint). This
// guards the request surface; the 30-second OTP re-issue window is enforced
// separately against the persisted record.
type Limiter struct {
	buckets map[string]*rate.Limiter
	mu      sync.Mutex
	rps     rate.Limit
	burst   int
}

// NewLimiter creates a per-key limiter
func NewLimiter(rps int, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*rate.Limiter),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
}

// Allow reports whether the request for key may proceed
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	bucket, ok := l.buckets[key]
	if !ok {
		bucket = rate.NewLimiter(l.rps, l.burst)
		l.buckets[key] = bucket
	}
	l.mu.Unlock()

	return bucket.Allow()
}

// Check returns ErrRateLimitExceeded when the key is over its limit
func (l *Limiter) Check(key string) error {
	if !l.Allow(key) {
		return errors.ErrRateLimitExceeded
	}
	return nil
}

// StartCleanupWorker periodically drops accumulated buckets so the map does
// not grow without bound.
func (l *Limiter) StartCleanupWorker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.mu.Lock()
			if len(l.buckets) > 10000 {
				l.buckets = make(map[string]*rate.Limiter)
			}
			l.mu.Unlock()
		}
	}
}
