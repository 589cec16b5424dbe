package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryL1_SetGet(t *testing.T) {
	l1 := NewMemoryL1(10, time.Minute)
	l1.Set("k", "v")
	v, ok := l1.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestMemoryL1_TTLExpiry(t *testing.T) {
	l1 := NewMemoryL1(10, 10*time.Millisecond)
	l1.Set("k", "v")
	time.Sleep(30 * time.Millisecond)
	_, ok := l1.Get("k")
	assert.False(t, ok, "entry must expire after its TTL elapses")
}

func TestMemoryL1_LRUEviction(t *testing.T) {
	l1 := NewMemoryL1(2, time.Minute)
	l1.Set("a", "1")
	l1.Set("b", "2")
	l1.Set("c", "3") // evicts "a", the least recently used

	_, ok := l1.Get("a")
	assert.False(t, ok)
	_, ok = l1.Get("b")
	assert.True(t, ok)
	_, ok = l1.Get("c")
	assert.True(t, ok)
}

func TestMemoryL1_DeletePrefix(t *testing.T) {
	l1 := NewMemoryL1(10, time.Minute)
	l1.Set("prompt:greet:v1.0", "a")
	l1.Set("prompt:greet:vlatest", "b")
	l1.Set("prompt:other:vlatest", "c")

	l1.DeletePrefix("prompt:greet:")

	_, ok := l1.Get("prompt:greet:v1.0")
	assert.False(t, ok)
	_, ok = l1.Get("prompt:greet:vlatest")
	assert.False(t, ok)
	_, ok = l1.Get("prompt:other:vlatest")
	assert.True(t, ok, "prefix deletion must not affect unrelated keys")
}

func TestMemoryL1_Clear(t *testing.T) {
	l1 := NewMemoryL1(10, time.Minute)
	l1.Set("a", "1")
	l1.Set("b", "2")
	l1.Clear()
	_, ok := l1.Get("a")
	assert.False(t, ok)
	_, ok = l1.Get("b")
	assert.False(t, ok)
}
