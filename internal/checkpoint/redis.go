package checkpoint

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "jobminer:checkpoint:"

// RedisKV stores checkpoints in Redis, which lets crawl schedules move
// between hosts without losing their resume points.
type RedisKV struct {
	client redis.UniversalClient
}

// NewRedisKV pings the server before accepting it.
func NewRedisKV(ctx context.Context, client redis.UniversalClient) (*RedisKV, error) {
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisKV{client: client}, nil
}

// Get implements KV.
func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return raw, nil
}

// Put implements KV. Checkpoints do not expire; a stale resume point is
// corrected by the next completed run.
func (r *RedisKV) Put(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, redisKeyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
