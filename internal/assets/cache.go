package assets

import (
	"io/fs"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"

	"github.com/NickFlach/pitchfork-echo-studio-sub004/internal/metrics"
)

type cachedFile struct {
	data    []byte
	size    int64
	modTime time.Time
}

// Cache keeps file contents in memory within a byte budget, evicting least
// recently used entries. Entries are checked against the file's size and
// modification time on every read, so a rebuilt bundle is picked up even
// without a watcher. Returned slices are shared and must not be modified.
type Cache struct {
	store    Store
	maxBytes int64
	metrics  *metrics.Metrics

	mu    sync.Mutex
	lru   *lru.Cache
	bytes int64
}

func NewCache(store Store, maxBytes int64, m *metrics.Metrics) *Cache {
	c := &Cache{
		store:    store,
		maxBytes: maxBytes,
		metrics:  m,
		lru:      lru.New(0),
	}
	// Runs under c.mu: every lru mutation happens with the lock held.
	c.lru.OnEvicted = func(_ lru.Key, value interface{}) {
		c.bytes -= value.(*cachedFile).size
	}
	return c
}

func (c *Cache) Stat(name string) (fs.FileInfo, error) {
	return c.store.Stat(name)
}

func (c *Cache) ReadFile(name string) ([]byte, error) {
	info, err := StatRegular(c.store, name)
	if err != nil {
		return nil, err
	}

	if data, ok := c.lookup(name, info); ok {
		c.metrics.CacheHits.Inc()
		return data, nil
	}
	c.metrics.CacheMisses.Inc()

	data, err := c.store.ReadFile(name)
	if err != nil {
		return nil, err
	}

	// Size drifted between stat and read: the file is being rewritten.
	if int64(len(data)) == info.Size() {
		c.add(name, data, info.ModTime())
	}

	return data, nil
}

// Purge drops every cached entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.lru.Clear()
	c.bytes = 0
	c.mu.Unlock()

	c.metrics.CacheInvalidations.Inc()
	c.metrics.CacheBytes.Set(0)
}

// Size reports the bytes currently cached.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes
}

func (c *Cache) lookup(name string, info fs.FileInfo) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok := c.lru.Get(name)
	if !ok {
		return nil, false
	}

	entry := value.(*cachedFile)
	if entry.size != info.Size() || !entry.modTime.Equal(info.ModTime()) {
		c.lru.Remove(name)
		c.metrics.CacheBytes.Set(float64(c.bytes))
		return nil, false
	}

	return entry.data, true
}

func (c *Cache) add(name string, data []byte, modTime time.Time) {
	size := int64(len(data))
	if size > c.maxBytes {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// lru.Add replaces values in place without calling OnEvicted.
	c.lru.Remove(name)
	c.lru.Add(name, &cachedFile{data: data, size: size, modTime: modTime})
	c.bytes += size

	for c.bytes > c.maxBytes && c.lru.Len() > 0 {
		c.lru.RemoveOldest()
		c.metrics.CacheEvictions.Inc()
	}

	c.metrics.CacheBytes.Set(float64(c.bytes))
}
