package redis

import (
	"context"
	"fmt"
	"math"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"dealeraccess/internal/gateway"
)

const keyPrefix = "dealeraccess:ratelimit:"

// RateLimiter is a fixed-window per-tenant limiter shared by every gateway
// replica pointed at the same Redis.
type RateLimiter struct {
	client *goredis.Client
	limit  int64
	window time.Duration
	now    func() time.Time
}

// NewRateLimiter allows limit requests per tenant per window.
func NewRateLimiter(client *goredis.Client, limit int, window time.Duration, clock func() time.Time) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  int64(limit),
		window: window,
		now:    clock,
	}
}

// Connect parses url and pings the server.
func Connect(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

// Allow counts the request against the tenant's current window.
func (rl *RateLimiter) Allow(ctx context.Context, tenantID string) (gateway.RateLimitResult, error) {
	now := rl.now()
	slot := now.UnixNano() / int64(rl.window)
	key := fmt.Sprintf("%s%s:%d", keyPrefix, tenantID, slot)

	pipe := rl.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return gateway.RateLimitResult{}, fmt.Errorf("counting request for tenant %s: %w", tenantID, err)
	}

	if incr.Val() <= rl.limit {
		return gateway.RateLimitResult{Allowed: true}, nil
	}

	windowEnd := time.Unix(0, (slot+1)*int64(rl.window))
	retry := int(math.Ceil(windowEnd.Sub(now).Seconds()))
	return gateway.RateLimitResult{Allowed: false, RetryAfter: max(retry, 1)}, nil
}
