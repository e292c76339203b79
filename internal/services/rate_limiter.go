package services

import (
	"context"
	"sync"
	"time"
)

// TMDBRateLimiter paces outgoing TMDB requests with a token bucket.
// TMDB allows 50 requests per 10 seconds; 40 keeps a safety margin.
type TMDBRateLimiter struct {
	maxTokens  int
	refillRate time.Duration

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// NewTMDBRateLimiter creates a limiter with a full bucket.
func NewTMDBRateLimiter() *TMDBRateLimiter {
	return &TMDBRateLimiter{
		maxTokens:  40,
		refillRate: 250 * time.Millisecond, // 40 tokens over 10 seconds
		tokens:     40,
		lastRefill: time.Now(),
	}
}

// Wait blocks until a token is available or the context is done.
func (r *TMDBRateLimiter) Wait(ctx context.Context) error {
	for {
		if d := r.take(); d <= 0 {
			return nil
		} else {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d):
			}
		}
	}
}

// take consumes a token if one is available, otherwise returns how long to
// wait before trying again.
func (r *TMDBRateLimiter) take() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(r.lastRefill)
	refilled := r.tokens + float64(elapsed)/float64(r.refillRate)
	if refilled > float64(r.maxTokens) {
		refilled = float64(r.maxTokens)
	}
	r.tokens = refilled
	r.lastRefill = now

	if r.tokens >= 1 {
		r.tokens--
		return 0
	}
	return time.Duration((1 - r.tokens) * float64(r.refillRate))
}
