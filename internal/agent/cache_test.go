package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pagelens/pagelens/internal/shared/wire"
)

func TestCachePressureFlush(t *testing.T) {
	c := NewCache(time.Minute, 10)
	clock := time.Now()
	c.now = func() time.Time { return clock }

	heap := uint64(0)
	c.heapInUse = func() uint64 { return heap }

	c.Put("a", wire.ContextBundle{Content: "a"})
	clock = clock.Add(2 * pressureInterval)
	c.Put("b", wire.ContextBundle{Content: "b"})
	assert.Equal(t, 2, c.Len())

	// Heap above 80% of the soft limit empties the cache on the next Put.
	heap = softHeapLimit
	clock = clock.Add(2 * pressureInterval)
	c.Put("c", wire.ContextBundle{Content: "c"})
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestCachePressureSampleThrottled(t *testing.T) {
	c := NewCache(time.Minute, 10)
	clock := time.Now()
	c.now = func() time.Time { return clock }

	samples := 0
	c.heapInUse = func() uint64 { samples++; return 0 }

	// Puts inside one interval share a single heap sample.
	c.Put("a", wire.ContextBundle{})
	c.Put("b", wire.ContextBundle{})
	c.Put("c", wire.ContextBundle{})
	assert.Equal(t, 1, samples)

	clock = clock.Add(2 * pressureInterval)
	c.Put("d", wire.ContextBundle{})
	assert.Equal(t, 2, samples)
}
