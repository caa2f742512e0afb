package util

import (
	"context"
	"sync"
	"time"
)

// RateLimiter spaces operations to at most perMinute per minute. It is a
// single-token bucket: no bursting, safe for concurrent use.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
}

// NewRateLimiter creates a limiter allowing perMinute operations per minute.
func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{interval: time.Minute / time.Duration(perMinute)}
}

// Wait blocks until the next operation is allowed or the context is
// cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	rl.mu.Lock()
	now := time.Now()
	wait := rl.next.Sub(now)
	if wait < 0 {
		wait = 0
	}
	rl.next = now.Add(wait + rl.interval)
	rl.mu.Unlock()

	if wait == 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}
