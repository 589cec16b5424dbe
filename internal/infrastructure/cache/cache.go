package cache

import (
	"context"
	"log/slog"
	"time"

	cacheDomain "brokle/internal/core/domain/cache"
)

// TwoTier composes an L1, an optional L2, and an optional
// InvalidationBus into cache.Cache. Read path: L1 miss falls through
// to L2 and promotes on hit. Write path: L2 first, then L1; an L2
// failure degrades to L1-only and logs.
type TwoTier struct {
	l1     cacheDomain.L1
	l2     cacheDomain.L2 // nil when no shared tier is configured
	bus    cacheDomain.InvalidationBus
	logger *slog.Logger
	stop   func()
}

// NewTwoTier builds the composed cache and, if bus is non-nil, starts
// the background invalidation subscriber.
func NewTwoTier(ctx context.Context, l1 cacheDomain.L1, l2 cacheDomain.L2, bus cacheDomain.InvalidationBus, logger *slog.Logger) *TwoTier {
	c := &TwoTier{l1: l1, l2: l2, bus: bus, logger: logger}
	if bus != nil {
		stop, err := bus.Subscribe(ctx, c.applyRemoteInvalidation)
		if err != nil {
			logger.Warn("cache: failed to subscribe to invalidation bus, running L1-only across processes", "error", err)
		} else {
			c.stop = stop
		}
	}
	return c
}

func (c *TwoTier) applyRemoteInvalidation(msg cacheDomain.InvalidationMessage) {
	switch msg.Action {
	case cacheDomain.ActionSet, cacheDomain.ActionDelete:
		c.l1.Delete(msg.Key)
	case cacheDomain.ActionClear:
		c.l1.Clear()
	}
}

func (c *TwoTier) Get(ctx context.Context, key string) (string, bool, error) {
	if v, ok := c.l1.Get(key); ok {
		return v, true, nil
	}
	if c.l2 == nil {
		return "", false, nil
	}
	v, ok, err := c.l2.Get(ctx, key)
	if err != nil {
		return "", false, nil
	}
	if ok {
		c.l1.Set(key, v)
	}
	return v, ok, nil
}

func (c *TwoTier) Set(ctx context.Context, key, value string) error {
	if c.l2 != nil {
		if err := c.l2.Set(ctx, key, value); err != nil {
			c.logger.Warn("cache: L2 write failed, degrading to L1-only for this key", "key", key, "error", err)
		}
	}
	c.l1.Set(key, value)
	if c.bus != nil {
		_ = c.bus.Publish(ctx, cacheDomain.InvalidationMessage{Action: cacheDomain.ActionSet, Key: key, Timestamp: time.Now().Unix()})
	}
	return nil
}

func (c *TwoTier) Delete(ctx context.Context, key string) error {
	c.l1.Delete(key)
	if c.l2 != nil {
		if err := c.l2.Delete(ctx, key); err != nil {
			c.logger.Warn("cache: L2 delete failed", "key", key, "error", err)
		}
	}
	if c.bus != nil {
		_ = c.bus.Publish(ctx, cacheDomain.InvalidationMessage{Action: cacheDomain.ActionDelete, Key: key, Timestamp: time.Now().Unix()})
	}
	return nil
}

func (c *TwoTier) InvalidatePattern(ctx context.Context, prefix string) error {
	c.l1.DeletePrefix(prefix)
	if c.l2 != nil {
		if err := c.l2.DeletePrefix(ctx, prefix); err != nil {
			c.logger.Warn("cache: L2 prefix delete failed", "prefix", prefix, "error", err)
		}
	}
	if c.bus != nil {
		_ = c.bus.Publish(ctx, cacheDomain.InvalidationMessage{Action: cacheDomain.ActionClear, Key: prefix, Timestamp: time.Now().Unix()})
	}
	return nil
}

func (c *TwoTier) Close() error {
	if c.stop != nil {
		c.stop()
	}
	return nil
}
