package codelockout

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounter implements Counter on Redis so lockout state is shared across
// every check-in terminal talking to the same deployment.
type RedisCounter struct {
	client *redis.Client
}

// NewRedisCounter wraps an existing client.
func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

func (c *RedisCounter) IncrMiss(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	// NX so the window starts at the first miss and is not pushed out by
	// later ones.
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (c *RedisCounter) SetLock(ctx context.Context, key string, ttl time.Duration) error {
	return c.client.Set(ctx, key, "1", ttl).Err()
}

func (c *RedisCounter) IsLocked(ctx context.Context, key string) (bool, error) {
	err := c.client.Get(ctx, key).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
