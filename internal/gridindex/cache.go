package gridindex

import (
	"sync"

	"github.com/couchcryptid/flood-risk-service/internal/observability"
)

// Locator resolves a coordinate to a Grid_ID.
type Locator interface {
	LookupGridID(lat, lon float64) (int64, bool, error)
}

// CachedLocator wraps a Locator with an in-memory LRU keyed by the exact
// coordinate, so repeated lookups of the same point skip the index.
type CachedLocator struct {
	inner   Locator
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedLocator creates a cache decorator around a locator.
func NewCachedLocator(inner Locator, maxEntries int, metrics *observability.Metrics) *CachedLocator {
	return &CachedLocator{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedLocator) LookupGridID(lat, lon float64) (int64, bool, error) {
	key := coordKey{lat: lat, lon: lon}
	if id, ok := c.cache.get(key); ok {
		c.metrics.GridCache.WithLabelValues("hit").Inc()
		return id, true, nil
	}
	c.metrics.GridCache.WithLabelValues("miss").Inc()

	id, ok, err := c.inner.LookupGridID(lat, lon)
	if err != nil || !ok {
		return id, ok, err
	}
	// Misses are not cached; the caller turns them into a client error anyway.
	c.cache.put(key, id)
	return id, true, nil
}

type coordKey struct {
	lat, lon float64
}

// lruCache is a small thread-safe LRU of Grid_IDs.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[coordKey]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   coordKey
	value int64
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: max(maxEntries, 1),
		entries:    make(map[coordKey]*entry),
	}
}

func (c *lruCache) get(key coordKey) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return 0, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key coordKey, value int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.pushFront(e)

	if len(c.entries) > c.maxEntries {
		last := c.tail
		c.unlink(last)
		delete(c.entries, last.key)
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}

func (c *lruCache) pushFront(e *entry) {
	e.prev, e.next = nil, c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}
