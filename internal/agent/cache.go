package agent

import (
	"container/list"
	"runtime"
	"sync"
	"time"

	"github.com/pagelens/pagelens/internal/shared/wire"
)

// Cache defaults.
const (
	DefaultCacheTTL     = 30 * time.Second
	DefaultCacheEntries = 50

	// Heap ceiling for the pressure check. When live heap crosses 80% of
	// this the cache empties itself rather than compete with the page.
	softHeapLimit = 256 << 20

	// ReadMemStats is not free, so pressure is sampled at most this often.
	pressureInterval = time.Second
)

type cacheEntry struct {
	key     string
	bundle  wire.ContextBundle
	expires time.Time
}

// Cache is a TTL-bounded LRU of extraction bundles. Keys combine the page
// URL with the canonical option fingerprint, so two logically equal option
// sets always hit the same entry.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	cap     int
	order   *list.List // front = most recent
	entries map[string]*list.Element

	now       func() time.Time
	heapInUse func() uint64
	lastCheck time.Time
}

// NewCache builds a cache with the given TTL and entry cap. Non-positive
// values pick the defaults.
func NewCache(ttl time.Duration, entries int) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if entries <= 0 {
		entries = DefaultCacheEntries
	}
	return &Cache{
		ttl:       ttl,
		cap:       entries,
		order:     list.New(),
		entries:   make(map[string]*list.Element),
		now:       time.Now,
		heapInUse: heapInUse,
	}
}

func heapInUse() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapInuse
}

// Key builds the cache key for a page URL and option set.
func Key(url string, opts wire.ContextOptions) string {
	return url + "|" + opts.Fingerprint()
}

// Get returns the cached bundle for key, if present and unexpired.
func (c *Cache) Get(key string) (wire.ContextBundle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return wire.ContextBundle{}, false
	}
	entry := el.Value.(*cacheEntry)
	if c.now().After(entry.expires) {
		c.order.Remove(el)
		delete(c.entries, key)
		return wire.ContextBundle{}, false
	}
	c.order.MoveToFront(el)
	return entry.bundle, true
}

// Put stores a bundle, evicting the least recently used entry when full.
func (c *Cache) Put(key string, bundle wire.ContextBundle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.underPressure() {
		c.order.Init()
		c.entries = make(map[string]*list.Element)
	}

	if el, ok := c.entries[key]; ok {
		entry := el.Value.(*cacheEntry)
		entry.bundle = bundle
		entry.expires = c.now().Add(c.ttl)
		c.order.MoveToFront(el)
		return
	}

	for c.order.Len() >= c.cap {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}

	el := c.order.PushFront(&cacheEntry{
		key:     key,
		bundle:  bundle,
		expires: c.now().Add(c.ttl),
	})
	c.entries[key] = el
}

// underPressure samples live heap, at most once per pressureInterval, and
// reports whether it sits above 80% of the soft limit. Caller holds mu.
func (c *Cache) underPressure() bool {
	now := c.now()
	if now.Sub(c.lastCheck) < pressureInterval {
		return false
	}
	c.lastCheck = now
	return c.heapInUse() > softHeapLimit*8/10
}

// Flush drops every entry. Called on page mutation and under memory
// pressure.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.entries = make(map[string]*list.Element)
}

// Len returns the live entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
