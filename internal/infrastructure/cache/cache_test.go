package cache

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cacheDomain "brokle/internal/core/domain/cache"
)

type fakeL2 struct {
	mu   sync.Mutex
	data map[string]string
	fail bool
}

func newFakeL2() *fakeL2 { return &fakeL2{data: map[string]string{}} }

func (f *fakeL2) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeL2) Set(ctx context.Context, key, value string) error {
	if f.fail {
		return assert.AnError
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

func (f *fakeL2) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func (f *fakeL2) DeletePrefix(ctx context.Context, prefix string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k := range f.data {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(f.data, k)
		}
	}
	return nil
}

type fakeBus struct {
	handle     func(cacheDomain.InvalidationMessage)
	published  []cacheDomain.InvalidationMessage
}

func (b *fakeBus) Publish(ctx context.Context, msg cacheDomain.InvalidationMessage) error {
	b.published = append(b.published, msg)
	return nil
}

func (b *fakeBus) Subscribe(ctx context.Context, handle func(cacheDomain.InvalidationMessage)) (func(), error) {
	b.handle = handle
	return func() {}, nil
}

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestTwoTier_ReadThroughPromotesL1(t *testing.T) {
	l1 := NewMemoryL1(10, time.Minute)
	l2 := newFakeL2()
	two := NewTwoTier(context.Background(), l1, l2, nil, testLogger())

	require.NoError(t, l2.Set(context.Background(), "prompt:x:vlatest", "cached"))

	v, ok, err := two.Get(context.Background(), "prompt:x:vlatest")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "cached", v)

	l1v, l1ok := l1.Get("prompt:x:vlatest")
	assert.True(t, l1ok, "L2 hit must promote into L1")
	assert.Equal(t, "cached", l1v)
}

func TestTwoTier_WriteL2FirstThenL1(t *testing.T) {
	l1 := NewMemoryL1(10, time.Minute)
	l2 := newFakeL2()
	two := NewTwoTier(context.Background(), l1, l2, nil, testLogger())

	require.NoError(t, two.Set(context.Background(), "prompt:x:vlatest", "v"))

	_, okL1 := l1.Get("prompt:x:vlatest")
	assert.True(t, okL1)
	v, okL2, _ := l2.Get(context.Background(), "prompt:x:vlatest")
	assert.True(t, okL2)
	assert.Equal(t, "v", v)
}

func TestTwoTier_L2FailureDegradesToL1Only(t *testing.T) {
	l1 := NewMemoryL1(10, time.Minute)
	l2 := newFakeL2()
	l2.fail = true
	two := NewTwoTier(context.Background(), l1, l2, nil, testLogger())

	err := two.Set(context.Background(), "k", "v")
	assert.NoError(t, err, "L2 write failure degrades to L1-only, not an error to the caller")

	v, ok := l1.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestTwoTier_RemoteDeleteInvalidatesL1Entry(t *testing.T) {
	l1 := NewMemoryL1(10, time.Minute)
	bus := &fakeBus{}
	_ = NewTwoTier(context.Background(), l1, nil, bus, testLogger())

	l1.Set("prompt:x:vlatest", "stale")
	require.NotNil(t, bus.handle, "TwoTier must subscribe at construction")

	bus.handle(cacheDomain.InvalidationMessage{Action: cacheDomain.ActionDelete, Key: "prompt:x:vlatest"})

	_, ok := l1.Get("prompt:x:vlatest")
	assert.False(t, ok, "a remote delete message must invalidate the matching local L1 entry")
}

func TestTwoTier_RemoteClearWipesL1Entirely(t *testing.T) {
	l1 := NewMemoryL1(10, time.Minute)
	bus := &fakeBus{}
	_ = NewTwoTier(context.Background(), l1, nil, bus, testLogger())

	l1.Set("prompt:a:vlatest", "1")
	l1.Set("prompt:b:vlatest", "2")

	bus.handle(cacheDomain.InvalidationMessage{Action: cacheDomain.ActionClear})

	_, ok := l1.Get("prompt:a:vlatest")
	assert.False(t, ok)
	_, ok = l1.Get("prompt:b:vlatest")
	assert.False(t, ok)
}

func TestTwoTier_InvalidatePattern(t *testing.T) {
	l1 := NewMemoryL1(10, time.Minute)
	l2 := newFakeL2()
	two := NewTwoTier(context.Background(), l1, l2, nil, testLogger())

	require.NoError(t, two.Set(context.Background(), "prompt:greet:v1.0", "a"))
	require.NoError(t, two.Set(context.Background(), "prompt:greet:vlatest", "b"))
	require.NoError(t, two.Set(context.Background(), "prompt:other:vlatest", "c"))

	require.NoError(t, two.InvalidatePattern(context.Background(), "prompt:greet:"))

	_, ok, _ := two.Get(context.Background(), "prompt:greet:v1.0")
	assert.False(t, ok)
	_, ok2, _ := two.Get(context.Background(), "prompt:other:vlatest")
	assert.True(t, ok2)
}
