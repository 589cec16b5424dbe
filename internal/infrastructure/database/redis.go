package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"brokle/internal/config"
	"brokle/internal/core/domain/common"
)

// RedisDB is the shared-tier connection backing the L2 cache and the
// cross-process invalidation bus (redis.cache package).
type RedisDB struct {
	Client *redis.Client
	logger *slog.Logger
}

// NewRedisDB dials the redis.url configured connection. Returns an
// error if url is empty; callers decide whether that's fatal (cache
// falls back to L1-only when no L2 is configured).
func NewRedisDB(cfg *config.Config, logger *slog.Logger) (*RedisDB, error) {
	opt, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second
	opt.PoolSize = 10
	opt.PoolTimeout = 30 * time.Second

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	logger.Info("connected to Redis")

	return &RedisDB{Client: client, logger: logger}, nil
}

func (r *RedisDB) Close() error {
	r.logger.Info("closing Redis connection")
	return r.Client.Close()
}

func (r *RedisDB) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.Client.Ping(ctx).Err()
}

// The methods below satisfy common.RedisClient, letting callers (the L2
// cache tier) depend on that abstraction instead of *redis.Client
// directly.

func (r *RedisDB) Get(ctx context.Context, key string) (string, error) {
	v, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", common.ErrRedisKeyNotFound
	}
	return v, err
}

func (r *RedisDB) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return r.Client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisDB) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.Client.Del(ctx, keys...).Err()
}

func (r *RedisDB) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return r.Client.Expire(ctx, key, ttl).Err()
}

func (r *RedisDB) Scan(ctx context.Context, cursor uint64, pattern string, count int64) ([]string, uint64, error) {
	return r.Client.Scan(ctx, cursor, pattern, count).Result()
}
