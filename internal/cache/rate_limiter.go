package cache

import (
	"context"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// counter is the subset of redis commands the limiter uses.
type counter interface {
	Incr(ctx context.Context, key string) *redisv9.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redisv9.BoolCmd
}

// RateLimiter is a fixed-window counter of chat turns per user.
type RateLimiter struct {
	client counter
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRateLimiter(client counter, limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 30
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

type Decision struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

func (l *RateLimiter) Allow(ctx context.Context, userID uint) (Decision, error) {
	bucket := l.now().UnixNano() / int64(l.window)
	key := l.key(userID, bucket)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return Decision{Allowed: true}, fmt.Errorf("redis incr rate counter failed: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return Decision{Allowed: true}, fmt.Errorf("redis expire rate counter failed: %w", err)
		}
	}

	resetAt := time.Unix(0, (bucket+1)*int64(l.window))
	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   int(count) <= l.limit,
		Remaining: remaining,
		ResetIn:   resetAt.Sub(l.now()),
	}, nil
}

func (l *RateLimiter) Limit() int {
	return l.limit
}

func (l *RateLimiter) key(userID uint, bucket int64) string {
	return fmt.Sprintf("assistant:ratelimit:%d:%d", userID, bucket)
}
