package table

import (
	"github.com/aalhour/rockyardfilter/internal/cache"
	"github.com/aalhour/rockyardfilter/internal/logging"
	"github.com/aalhour/rockyardfilter/internal/vfs"
)

// Cache keeps recently used filter files open. Entries are charged by the
// size of their decompressed filter block.
type Cache struct {
	fs     vfs.FS
	opts   ReaderOptions
	logger logging.Logger
	lru    *cache.LRUCache[string, *Reader]
}

// NewCache returns a cache of at most capacity bytes of filter blocks.
func NewCache(fs vfs.FS, opts ReaderOptions, capacity uint64) *Cache {
	logger := opts.Logger
	if logging.IsNil(logger) {
		logger = logging.Discard
	}
	c := &Cache{fs: fs, opts: opts, logger: logger}
	c.lru = cache.NewLRUCache(capacity, func(path string, r *Reader) {
		if err := r.Close(); err != nil {
			c.logger.Warnf(logging.NSTable+"close %s: %v", path, err)
		}
	})
	return c
}

func (c *Cache) find(path string) (*cache.Handle[string, *Reader], error) {
	if h := c.lru.Lookup(path); h != nil {
		return h, nil
	}

	f, err := c.fs.OpenRandomAccess(path)
	if err != nil {
		return nil, err
	}
	r, err := Open(f, c.opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	c.logger.Debugf(logging.NSTable+"opened %s (%d bytes of filters)", path, len(r.contents))
	return c.lru.Insert(path, r, uint64(len(r.contents))), nil
}

// KeyMayMatch reports whether key may be present in the data block at
// blockOffset of the table described by the filter file at path.
func (c *Cache) KeyMayMatch(path string, blockOffset uint64, key []byte) (bool, error) {
	h, err := c.find(path)
	if err != nil {
		return true, err
	}
	defer c.lru.Release(h)
	return h.Value().KeyMayMatch(blockOffset, key), nil
}

// Stats returns the stats of the filter file at path.
func (c *Cache) Stats(path string) (Stats, error) {
	h, err := c.find(path)
	if err != nil {
		return Stats{}, err
	}
	defer c.lru.Release(h)
	return h.Value().Stats(), nil
}

// Evict drops path from the cache, e.g. after the file was deleted.
func (c *Cache) Evict(path string) {
	c.lru.Erase(path)
}

// Usage returns the total size of the cached filter blocks.
func (c *Cache) Usage() uint64 {
	return c.lru.GetUsage()
}

// HitRate returns the fraction of lookups served without opening a file.
func (c *Cache) HitRate() float64 {
	return c.lru.GetHitRate()
}

// Close closes every cached file.
func (c *Cache) Close() {
	c.lru.Close()
}
