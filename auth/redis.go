package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter enforces the resend cool-down with a Redis key per
// email, for deployments where multiple instances share the limit. The key
// lives exactly as long as the window; its presence means a code was
// issued inside the window.
type RedisRateLimiter struct {
	client *redis.Client
	prefix string
	window time.Duration
}

func NewRedisRateLimiter(client *redis.Client, prefix string) *RedisRateLimiter {
	if prefix == "" {
		prefix = "storecore:cooldown:"
	}
	return &RedisRateLimiter{
		client: client,
		prefix: prefix,
		window: CooldownWindow,
	}
}

func (l *RedisRateLimiter) key(email string) string {
	return l.prefix + email
}

func (l *RedisRateLimiter) MayIssue(ctx context.Context, email string) (bool, time.Duration, error) {
	ttl, err := l.client.PTTL(ctx, l.key(email)).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis cooldown: ttl check failed: %w", err)
	}
	// PTTL returns a negative duration when the key does not exist or has
	// no expiry.
	if ttl <= 0 {
		return true, 0, nil
	}
	return false, ttl, nil
}

func (l *RedisRateLimiter) MarkIssued(ctx context.Context, email string) error {
	if err := l.client.Set(ctx, l.key(email), time.Now().UnixMilli(), l.window).Err(); err != nil {
		return fmt.Errorf("redis cooldown: mark issued failed: %w", err)
	}
	return nil
}
