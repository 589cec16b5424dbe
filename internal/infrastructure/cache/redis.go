package cache

import (
	"context"
	"errors"
	"time"

	"brokle/internal/core/domain/common"
)

// RedisL2 is the shared tier backing the two-tier cache. It depends on
// the common.RedisClient abstraction rather than *redis.Client directly
// so it never needs to know which driver backs it.
type RedisL2 struct {
	client common.RedisClient
	ttl    time.Duration
}

// NewRedisL2 builds an L2 cache over an already-connected RedisClient.
func NewRedisL2(client common.RedisClient, ttl time.Duration) *RedisL2 {
	return &RedisL2{client: client, ttl: ttl}
}

func (r *RedisL2) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, key)
	if errors.Is(err, common.ErrRedisKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisL2) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, key, value, r.ttl)
}

func (r *RedisL2) Delete(ctx context.Context, key string) error {
	return r.client.Delete(ctx, key)
}

func (r *RedisL2) DeletePrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	var keys []string
	for {
		batch, next, err := r.client.Scan(ctx, cursor, prefix+"*", 100)
		if err != nil {
			return err
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Delete(ctx, keys...)
}
