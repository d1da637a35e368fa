package imagery

import "sync"

// Cache memoizes resolution results by query signature within one generation
// run. Last-write-wins is fine: queries are idempotent reads, a lost update
// only costs an avoidable refetch.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Result
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]Result)}
}

func (c *Cache) Get(signature string) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res, ok := c.entries[signature]
	return res, ok
}

func (c *Cache) Put(signature string, res Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[signature] = res
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
