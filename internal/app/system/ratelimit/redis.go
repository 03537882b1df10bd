// internal/app/system/ratelimit/redis.go
package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a fixed-window limiter shared by every process pointing at the
// same Redis. The window starts at the first request for a key.
type Redis struct {
	client   *redis.Client
	limit    int
	duration time.Duration
	prefix   string
}

// NewRedis builds a limiter allowing limit requests per duration.
func NewRedis(client *redis.Client, limit int, duration time.Duration) *Redis {
	return &Redis{
		client:   client,
		limit:    limit,
		duration: duration,
		prefix:   "mcadmin:ratelimit:",
	}
}

// Allow increments the counter for key and reports whether it is within limit.
func (l *Redis) Allow(ctx context.Context, key string) (bool, error) {
	k := l.prefix + key

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := l.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		ttl = p.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return false, err
	}

	// A key without an expiry is new (or lost its TTL); start the window.
	if ttl.Val() < 0 {
		if err := l.client.PExpire(ctx, k, l.duration).Err(); err != nil {
			return false, err
		}
	}

	return incr.Val() <= int64(l.limit), nil
}

// Reset clears the counter for key.
func (l *Redis) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.prefix+key).Err()
}
