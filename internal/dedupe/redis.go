package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "listingnet:dedupe:"

// RedisGuard stores seen keys in Redis with SET NX, so every replica of the
// service shares the same view.
type RedisGuard struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisGuard wraps an existing client.
func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{client: client, prefix: defaultKeyPrefix, ttl: ttl}
}

// Connect parses a redis:// URL, dials and pings the server.
func Connect(ctx context.Context, rawURL string, ttl time.Duration) (*RedisGuard, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisGuard(client, ttl), nil
}

// FirstSeen implements Guard.
func (g *RedisGuard) FirstSeen(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.prefix+key, time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("recording key %q: %w", key, err)
	}
	return ok, nil
}

// Close closes the underlying client.
func (g *RedisGuard) Close() error {
	return g.client.Close()
}
