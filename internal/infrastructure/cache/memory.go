// Package cache implements cache.Cache's two-tier composition: an L1
// in-process LRU (hashicorp/golang-lru/v2) and an L2 shared tier over
// Redis, wired to a pub/sub InvalidationBus. Follows a
// provider_pricing_service.go LRU cache plus internal/workers'
// channel-driven background listener pattern, generalized to a
// two-tier read-through/write-through cache with cross-process
// invalidation.
package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// MemoryL1 is the bounded, TTL-bearing in-process tier.
type MemoryL1 struct {
	mu    sync.Mutex
	cache *lru.Cache[string, entry]
	ttl   time.Duration
}

// NewMemoryL1 builds an L1 cache with the given capacity and TTL.
func NewMemoryL1(capacity int, ttl time.Duration) *MemoryL1 {
	c, _ := lru.New[string, entry](capacity)
	return &MemoryL1{cache: c, ttl: ttl}
}

func (m *MemoryL1) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.cache.Get(key)
	if !ok {
		return "", false
	}
	if m.ttl > 0 && time.Now().After(e.expiresAt) {
		m.cache.Remove(key)
		return "", false
	}
	return e.value, true
}

func (m *MemoryL1) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Add(key, entry{value: value, expiresAt: time.Now().Add(m.ttl)})
}

func (m *MemoryL1) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Remove(key)
}

func (m *MemoryL1) DeletePrefix(prefix string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range m.cache.Keys() {
		if hasPrefix(k, prefix) {
			m.cache.Remove(k)
		}
	}
}

func (m *MemoryL1) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Purge()
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
