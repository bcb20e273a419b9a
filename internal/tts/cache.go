package tts

import (
	"container/list"
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

// DefaultPrefetchCapacity is the number of ready artifacts kept around.
const DefaultPrefetchCapacity = 10

// PrefetchCache is a bounded, insertion-ordered map from cache key to a
// generated audio file. The cache owns its files: eviction and Clear delete
// them, while Take hands ownership to the caller.
type PrefetchCache struct {
	capacity int

	items map[string]*list.Element
	order *list.List // front is the oldest insertion

	mu sync.Mutex

	stats CacheStats
}

// CacheStats tracks prefetch effectiveness.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
}

type prefetchEntry struct {
	key  string
	path string
}

// NewPrefetchCache creates a cache holding at most capacity artifacts.
func NewPrefetchCache(capacity int) *PrefetchCache {
	if capacity <= 0 {
		capacity = DefaultPrefetchCapacity
	}
	return &PrefetchCache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Put stores path under key, evicting the oldest entries past capacity.
// Re-putting a key counts as a fresh insertion.
func (c *PrefetchCache) Put(key, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		old := c.removeElement(elem)
		if old.path != path {
			removeArtifact(old.path)
		}
	}

	c.items[key] = c.order.PushBack(&prefetchEntry{key: key, path: path})

	for c.order.Len() > c.capacity {
		oldest := c.removeElement(c.order.Front())
		removeArtifact(oldest.path)
		c.stats.Evictions++
	}
}

// Take removes key and returns its path. The caller owns the file.
func (c *PrefetchCache) Take(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return "", false
	}
	c.stats.Hits++
	return c.removeElement(elem).path, true
}

// Has reports whether key is cached.
func (c *PrefetchCache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

// Len returns the number of cached artifacts.
func (c *PrefetchCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Cap returns the configured capacity.
func (c *PrefetchCache) Cap() int {
	return c.capacity
}

// Keys returns the cached keys from oldest to newest.
func (c *PrefetchCache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, c.order.Len())
	for e := c.order.Front(); e != nil; e = e.Next() {
		keys = append(keys, e.Value.(*prefetchEntry).key)
	}
	return keys
}

// Clear deletes every cached artifact.
func (c *PrefetchCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for e := c.order.Front(); e != nil; e = e.Next() {
		removeArtifact(e.Value.(*prefetchEntry).path)
	}
	c.items = make(map[string]*list.Element)
	c.order.Init()
}

// Stats returns a snapshot of the cache counters.
func (c *PrefetchCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *PrefetchCache) removeElement(elem *list.Element) *prefetchEntry {
	entry := c.order.Remove(elem).(*prefetchEntry)
	delete(c.items, entry.key)
	return entry
}

// removeArtifact deletes a generated file, ignoring files already gone.
func removeArtifact(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("Could not remove audio artifact", "path", path, "err", err)
	}
}
