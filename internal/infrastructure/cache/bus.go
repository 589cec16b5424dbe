package cache

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	cacheDomain "brokle/internal/core/domain/cache"
)

// invalidationChannel is the well-known pub/sub channel name.
const invalidationChannel = "prompt-cache-invalidation"

// RedisInvalidationBus broadcasts InvalidationMessages over a named
// Redis pub/sub channel, self-suppressing messages this process
// published itself.
type RedisInvalidationBus struct {
	client   *redis.Client
	logger   *slog.Logger
	sourceID string
}

// NewRedisInvalidationBus builds a bus bound to a process-unique
// sourceID used to suppress self-delivery.
func NewRedisInvalidationBus(client *redis.Client, sourceID string, logger *slog.Logger) *RedisInvalidationBus {
	return &RedisInvalidationBus{client: client, sourceID: sourceID, logger: logger}
}

func (b *RedisInvalidationBus) Publish(ctx context.Context, msg cacheDomain.InvalidationMessage) error {
	msg.SourceID = b.sourceID
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, invalidationChannel, payload).Err()
}

func (b *RedisInvalidationBus) Subscribe(ctx context.Context, handle func(cacheDomain.InvalidationMessage)) (func(), error) {
	sub := b.client.Subscribe(ctx, invalidationChannel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, err
	}

	ch := sub.Channel()
	done := make(chan struct{})
	go func() {
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var parsed cacheDomain.InvalidationMessage
				if err := json.Unmarshal([]byte(msg.Payload), &parsed); err != nil {
					b.logger.Warn("cache invalidation: dropping malformed message", "error", err)
					continue
				}
				if parsed.SourceID == b.sourceID {
					continue
				}
				handle(parsed)
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		sub.Close()
	}, nil
}
