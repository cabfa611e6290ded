package cache

import (
	"container/list"
	"sync"

	"github.com/okozhevnikov/imgcache/imgcache"
	"github.com/okozhevnikov/imgcache/metrics"
)

// Memory is a bounded in-memory cache of decoded images. Entries are
// evicted in LRU order when either the entry count or the aggregate
// cost exceeds its limit. All methods are safe for concurrent use and
// never block on I/O.
type Memory struct {
	maxEntries int
	maxCost    int64

	mu        sync.Mutex
	cost      int64
	items     map[imgcache.Key]*list.Element
	evictList *list.List
}

type memoryEntry struct {
	key imgcache.Key
	img *imgcache.Image
}

func NewMemory(maxEntries int, maxCost int64) *Memory {
	return &Memory{
		maxEntries: maxEntries,
		maxCost:    maxCost,
		items:      make(map[imgcache.Key]*list.Element),
		evictList:  list.New(),
	}
}

func (c *Memory) Get(key imgcache.Key) (*imgcache.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		metrics.MemoryMisses.Inc()
		return nil, false
	}

	metrics.MemoryHits.Inc()
	c.evictList.MoveToFront(elem)
	return elem.Value.(*memoryEntry).img, true
}

// Put records an entry and evicts the least recently used ones until both
// limits are satisfied. A put for a key already present replaces the entry
// without duplicate accounting.
func (c *Memory) Put(key imgcache.Key, img *imgcache.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*memoryEntry)
		c.cost += img.Cost() - entry.img.Cost()
		entry.img = img
		c.evictList.MoveToFront(elem)
	} else {
		c.items[key] = c.evictList.PushFront(&memoryEntry{key: key, img: img})
		c.cost += img.Cost()
	}

	for len(c.items) > c.maxEntries || c.cost > c.maxCost {
		if !c.evictOldest() {
			return
		}
	}
}

func (c *Memory) evictOldest() bool {
	elem := c.evictList.Back()
	if elem == nil {
		return false
	}

	entry := elem.Value.(*memoryEntry)
	c.evictList.Remove(elem)
	delete(c.items, entry.key)
	c.cost -= entry.img.Cost()

	metrics.MemoryEvictions.Inc()
	return true
}

// Clear drops all entries. It doesn't affect any pending loads.
func (c *Memory) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[imgcache.Key]*list.Element)
	c.evictList.Init()
	c.cost = 0
}

func (c *Memory) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.items)
}

func (c *Memory) Cost() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cost
}
