// Package cache provides a reference-counted LRU cache.
//
// Entries are charged against a fixed capacity. An entry referenced by an
// outstanding Handle is pinned: it is never evicted, and once it has been
// erased or replaced its eviction callback runs on the last Release.
//
// Reference: RocksDB v10.7.5
//   - cache/lru_cache.h
//   - cache/lru_cache.cc
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// Handle is a reference to a cached value.
type Handle[K comparable, V any] struct {
	key     K
	value   V
	charge  uint64
	refs    int32
	inCache bool
}

// Value returns the cached value.
func (h *Handle[K, V]) Value() V {
	return h.value
}

// Charge returns the capacity charge of this entry.
func (h *Handle[K, V]) Charge() uint64 {
	return h.charge
}

// LRUCache is a thread-safe LRU cache with a fixed capacity.
type LRUCache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity uint64
	usage    uint64
	table    map[K]*list.Element
	lru      *list.List // Front is most recently used

	// onEvict is called with mu held once an entry has left the cache and
	// is no longer referenced. It must not call back into the cache.
	onEvict func(key K, value V)

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewLRUCache creates a cache with the given capacity. onEvict may be nil.
func NewLRUCache[K comparable, V any](capacity uint64, onEvict func(K, V)) *LRUCache[K, V] {
	return &LRUCache[K, V]{
		capacity: capacity,
		table:    make(map[K]*list.Element),
		lru:      list.New(),
		onEvict:  onEvict,
	}
}

func handleOf[K comparable, V any](elem *list.Element) *Handle[K, V] {
	h, _ := elem.Value.(*Handle[K, V])
	return h
}

// Insert adds value under key, replacing any previous entry, and returns a
// referenced handle. The caller must Release it.
func (c *LRUCache[K, V]) Insert(key K, value V, charge uint64) *Handle[K, V] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.table[key]; ok {
		c.detach(elem)
	}

	h := &Handle[K, V]{key: key, value: value, charge: charge, refs: 1, inCache: true}
	c.table[key] = c.lru.PushFront(h)
	c.usage += charge

	for c.usage > c.capacity && c.evictOne() {
	}
	return h
}

// Lookup returns a referenced handle for key, or nil on a miss.
func (c *LRUCache[K, V]) Lookup(key K) *Handle[K, V] {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.table[key]
	if !ok {
		c.misses.Add(1)
		return nil
	}
	c.lru.MoveToFront(elem)
	h := handleOf[K, V](elem)
	h.refs++
	c.hits.Add(1)
	return h
}

// Release drops a reference obtained from Insert or Lookup.
func (c *LRUCache[K, V]) Release(h *Handle[K, V]) {
	if h == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	h.refs--
	if h.refs > 0 {
		return
	}
	if !h.inCache {
		c.evicted(h)
		return
	}
	for c.usage > c.capacity && c.evictOne() {
	}
}

// Erase removes key from the cache.
func (c *LRUCache[K, V]) Erase(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.table[key]; ok {
		c.detach(elem)
	}
}

// SetCapacity sets the maximum capacity and evicts down to it.
func (c *LRUCache[K, V]) SetCapacity(capacity uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.capacity = capacity
	for c.usage > c.capacity && c.evictOne() {
	}
}

// GetCapacity returns the maximum capacity.
func (c *LRUCache[K, V]) GetCapacity() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capacity
}

// GetUsage returns the total charge of cached entries.
func (c *LRUCache[K, V]) GetUsage() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usage
}

// GetPinnedUsage returns the charge of cached entries with live handles.
func (c *LRUCache[K, V]) GetPinnedUsage() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var pinned uint64
	for _, elem := range c.table {
		if h := handleOf[K, V](elem); h.refs > 0 {
			pinned += h.charge
		}
	}
	return pinned
}

// GetOccupancyCount returns the number of cached entries.
func (c *LRUCache[K, V]) GetOccupancyCount() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return uint64(len(c.table))
}

// GetHitCount returns the number of lookup hits.
func (c *LRUCache[K, V]) GetHitCount() uint64 {
	return c.hits.Load()
}

// GetMissCount returns the number of lookup misses.
func (c *LRUCache[K, V]) GetMissCount() uint64 {
	return c.misses.Load()
}

// GetHitRate returns the cache hit rate (0.0 to 1.0).
func (c *LRUCache[K, V]) GetHitRate() float64 {
	hits := c.hits.Load()
	total := hits + c.misses.Load()
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total)
}

// Close removes every entry. Entries with live handles are evicted on
// their last Release.
func (c *LRUCache[K, V]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for e := c.lru.Front(); e != nil; {
		next := e.Next()
		c.detach(e)
		e = next
	}
}

// evictOne evicts the least recently used unpinned entry. It returns false
// when every entry is pinned.
// Must be called with mu held.
func (c *LRUCache[K, V]) evictOne() bool {
	for e := c.lru.Back(); e != nil; e = e.Prev() {
		if handleOf[K, V](e).refs == 0 {
			c.detach(e)
			return true
		}
	}
	return false
}

// detach removes elem from the cache, running the eviction callback when
// the entry is unreferenced.
// Must be called with mu held.
func (c *LRUCache[K, V]) detach(elem *list.Element) {
	h := handleOf[K, V](elem)
	delete(c.table, h.key)
	c.lru.Remove(elem)
	c.usage -= h.charge
	h.inCache = false
	if h.refs == 0 {
		c.evicted(h)
	}
}

func (c *LRUCache[K, V]) evicted(h *Handle[K, V]) {
	if c.onEvict != nil {
		c.onEvict(h.key, h.value)
	}
}
