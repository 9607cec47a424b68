package inmem

import (
	"context"
	"math"
	"sync"
	"time"

	"dealeraccess/internal/gateway"
)

const staleThreshold = 10 * time.Minute

// RateLimiter is a per-tenant token bucket limiter held in process memory.
// Use the redis adapter when several gateway replicas share a budget.
type RateLimiter struct {
	rate  float64 // tokens per second
	burst int     // bucket capacity
	now   func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// NewRateLimiter creates a rate limiter.
// rate is tokens per second, burst is the maximum bucket capacity.
// clock is injectable for deterministic testing.
func NewRateLimiter(rate float64, burst int, clock func() time.Time) *RateLimiter {
	return &RateLimiter{
		rate:    rate,
		burst:   burst,
		now:     clock,
		buckets: make(map[string]*bucket),
	}
}

// Allow takes one token from the tenant's bucket. It never returns an error.
func (rl *RateLimiter) Allow(_ context.Context, tenantID string) (gateway.RateLimitResult, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b := rl.refill(tenantID, now)

	if b.tokens >= 1 {
		b.tokens--
		return gateway.RateLimitResult{Allowed: true}, nil
	}

	deficit := 1.0 - b.tokens
	return gateway.RateLimitResult{
		Allowed:    false,
		RetryAfter: max(int(math.Ceil(deficit/rl.rate)), 1),
	}, nil
}

func (rl *RateLimiter) refill(tenantID string, now time.Time) *bucket {
	b, ok := rl.buckets[tenantID]
	if !ok {
		b = &bucket{tokens: float64(rl.burst), lastSeen: now}
		rl.buckets[tenantID] = b
		return b
	}
	b.tokens = min(b.tokens+now.Sub(b.lastSeen).Seconds()*rl.rate, float64(rl.burst))
	b.lastSeen = now
	return b
}

// Cleanup drops buckets for tenants idle longer than the stale threshold.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for tenantID, b := range rl.buckets {
		if now.Sub(b.lastSeen) > staleThreshold {
			delete(rl.buckets, tenantID)
		}
	}
}

// Run calls Cleanup every interval until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Cleanup()
		}
	}
}

// BucketCount returns the number of tracked tenants (for testing).
func (rl *RateLimiter) BucketCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}
