package asana

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxRequestsPerMinute matches the Asana free tier. Premium
// workspaces allow 1500.
const DefaultMaxRequestsPerMinute = 150

const limiterWindow = time.Minute

// RateLimiter enforces a sliding-window request budget against the Asana
// API. Acquire blocks until a slot is free, so tool calls queue up instead
// of burning quota into 429 responses.
type RateLimiter struct {
	mu      sync.Mutex
	max     int
	stamps  []time.Time
	nowTime func() time.Time
}

// RateLimiterOption configures a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithLimiterNowTime sets the clock function (primarily for testing).
func WithLimiterNowTime(nowFunc func() time.Time) RateLimiterOption {
	return func(r *RateLimiter) {
		r.nowTime = nowFunc
	}
}

// NewRateLimiter creates a limiter allowing maxPerMinute requests in any
// sliding one-minute window.
func NewRateLimiter(maxPerMinute int, options ...RateLimiterOption) *RateLimiter {
	if maxPerMinute <= 0 {
		maxPerMinute = DefaultMaxRequestsPerMinute
	}
	r := &RateLimiter{
		max:     maxPerMinute,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Acquire blocks until a request slot is available or the context is done.
func (r *RateLimiter) Acquire(ctx context.Context) error {
	for {
		r.mu.Lock()
		now := r.nowTime()
		r.evict(now)
		if len(r.stamps) < r.max {
			r.stamps = append(r.stamps, now)
			r.mu.Unlock()
			return nil
		}
		wait := limiterWindow - now.Sub(r.stamps[0]) + 100*time.Millisecond
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// Remaining returns how many request slots are free in the current window.
func (r *RateLimiter) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evict(r.nowTime())
	return r.max - len(r.stamps)
}

// Max returns the configured per-minute budget.
func (r *RateLimiter) Max() int {
	return r.max
}

// evict drops stamps that have aged out of the window. Caller holds mu.
func (r *RateLimiter) evict(now time.Time) {
	cut := 0
	for cut < len(r.stamps) && now.Sub(r.stamps[cut]) >= limiterWindow {
		cut++
	}
	if cut > 0 {
		r.stamps = append(r.stamps[:0], r.stamps[cut:]...)
	}
}
