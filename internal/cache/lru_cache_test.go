package cache

import (
	"slices"
	"sync"
	"testing"
)

type evictLog struct {
	mu   sync.Mutex
	keys []string
}

func (l *evictLog) record(key string, _ int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
}

func (l *evictLog) get() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.keys)
}

func TestLRUCacheInsertLookup(t *testing.T) {
	c := NewLRUCache[string, int](100, nil)

	h := c.Insert("a", 1, 10)
	if h.Value() != 1 || h.Charge() != 10 {
		t.Errorf("handle = (%d, %d)", h.Value(), h.Charge())
	}
	c.Release(h)

	h = c.Lookup("a")
	if h == nil || h.Value() != 1 {
		t.Fatalf("Lookup(a) = %v", h)
	}
	c.Release(h)

	if c.Lookup("missing") != nil {
		t.Error("Lookup(missing) != nil")
	}
	if c.GetHitCount() != 1 || c.GetMissCount() != 1 {
		t.Errorf("hits=%d misses=%d", c.GetHitCount(), c.GetMissCount())
	}
	if r := c.GetHitRate(); r != 0.5 {
		t.Errorf("GetHitRate = %v", r)
	}
	if c.GetUsage() != 10 || c.GetOccupancyCount() != 1 {
		t.Errorf("usage=%d count=%d", c.GetUsage(), c.GetOccupancyCount())
	}
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	var log evictLog
	c := NewLRUCache(30, log.record)

	for _, k := range []string{"a", "b", "c"} {
		c.Release(c.Insert(k, 0, 10))
	}
	// Touch "a" so "b" is the oldest.
	c.Release(c.Lookup("a"))
	c.Release(c.Insert("d", 0, 10))

	if got := log.get(); !slices.Equal(got, []string{"b"}) {
		t.Errorf("evicted = %v, want [b]", got)
	}
	if c.Lookup("b") != nil {
		t.Error("b still cached")
	}
	if c.GetUsage() != 30 {
		t.Errorf("usage = %d, want 30", c.GetUsage())
	}
}

func TestLRUCachePinnedEntries(t *testing.T) {
	var log evictLog
	c := NewLRUCache(10, log.record)

	pinned := c.Insert("a", 1, 10)
	over := c.Insert("b", 2, 10)

	// Both pinned: the cache runs over capacity instead of evicting.
	if c.GetUsage() != 20 {
		t.Errorf("usage = %d, want 20", c.GetUsage())
	}
	if c.GetPinnedUsage() != 20 {
		t.Errorf("pinned usage = %d, want 20", c.GetPinnedUsage())
	}
	if len(log.get()) != 0 {
		t.Fatalf("evicted pinned entries: %v", log.get())
	}

	// Releasing lets the cache shrink back to capacity.
	c.Release(pinned)
	if got := log.get(); !slices.Equal(got, []string{"a"}) {
		t.Errorf("evicted = %v, want [a]", got)
	}
	c.Release(over)
	if c.GetUsage() != 10 {
		t.Errorf("usage = %d, want 10", c.GetUsage())
	}
}

func TestLRUCacheEraseDefersEviction(t *testing.T) {
	var log evictLog
	c := NewLRUCache(100, log.record)

	h := c.Insert("a", 1, 10)
	c.Erase("a")
	if c.Lookup("a") != nil {
		t.Error("erased key still visible")
	}
	if len(log.get()) != 0 {
		t.Fatal("evicted while referenced")
	}
	if h.Value() != 1 {
		t.Error("handle value changed after Erase")
	}
	c.Release(h)
	if got := log.get(); !slices.Equal(got, []string{"a"}) {
		t.Errorf("evicted = %v, want [a]", got)
	}
}

func TestLRUCacheReplace(t *testing.T) {
	var log evictLog
	c := NewLRUCache(100, log.record)

	old := c.Insert("a", 1, 10)
	c.Release(c.Insert("a", 2, 20))
	if c.GetUsage() != 20 || c.GetOccupancyCount() != 1 {
		t.Errorf("usage=%d count=%d", c.GetUsage(), c.GetOccupancyCount())
	}
	h := c.Lookup("a")
	if h.Value() != 2 {
		t.Errorf("Value = %d, want 2", h.Value())
	}
	c.Release(h)

	c.Release(old)
	if got := log.get(); !slices.Equal(got, []string{"a"}) {
		t.Errorf("evicted = %v, want [a] for the replaced entry", got)
	}
}

func TestLRUCacheSetCapacityAndClose(t *testing.T) {
	var log evictLog
	c := NewLRUCache(100, log.record)
	for _, k := range []string{"a", "b", "c", "d"} {
		c.Release(c.Insert(k, 0, 10))
	}

	c.SetCapacity(20)
	if c.GetCapacity() != 20 || c.GetUsage() != 20 {
		t.Errorf("capacity=%d usage=%d", c.GetCapacity(), c.GetUsage())
	}
	if got := log.get(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("evicted = %v, want [a b]", got)
	}

	c.Close()
	if c.GetOccupancyCount() != 0 || c.GetUsage() != 0 {
		t.Errorf("after Close: count=%d usage=%d", c.GetOccupancyCount(), c.GetUsage())
	}
	if n := len(log.get()); n != 4 {
		t.Errorf("evictions = %d, want 4", n)
	}
}

func TestLRUCacheConcurrent(t *testing.T) {
	c := NewLRUCache[int, int](64, nil)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		g := g
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				k := (g*31 + i) % 128
				if h := c.Lookup(k); h != nil {
					if h.Value() != k {
						t.Errorf("Lookup(%d) = %d", k, h.Value())
					}
					c.Release(h)
					continue
				}
				c.Release(c.Insert(k, k, 1))
			}
		}()
	}
	wg.Wait()
	if c.GetUsage() > 64 {
		t.Errorf("usage = %d exceeds capacity", c.GetUsage())
	}
}
