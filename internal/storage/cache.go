package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RefusalCache remembers pairs recently found not to be connected. Only
// refusals are stored: an entry can delay a fresh connection by its TTL but
// never authorizes a pair.
type RefusalCache interface {
	Refused(ctx context.Context, a, b string) (bool, error)
	Remember(ctx context.Context, a, b string) error
	Forget(ctx context.Context, a, b string) error
}

// RedisRefusalCache keeps refusals as expiring Redis keys.
type RedisRefusalCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisRefusalCache(rdb *redis.Client, ttl time.Duration) *RedisRefusalCache {
	return &RedisRefusalCache{rdb: rdb, ttl: ttl}
}

// refusalKey is symmetric in a and b.
func refusalKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return "refused:" + a + ":" + b
}

func (c *RedisRefusalCache) Refused(ctx context.Context, a, b string) (bool, error) {
	err := c.rdb.Get(ctx, refusalKey(a, b)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisRefusalCache) Remember(ctx context.Context, a, b string) error {
	return c.rdb.Set(ctx, refusalKey(a, b), "1", c.ttl).Err()
}

func (c *RedisRefusalCache) Forget(ctx context.Context, a, b string) error {
	return c.rdb.Del(ctx, refusalKey(a, b)).Err()
}
