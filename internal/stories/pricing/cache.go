package pricing

import (
	"strings"
	"sync"
)

// Cache memoizes lookups by item name for the process lifetime. A stored nil
// quote is a negative entry: looked up, nothing available.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Quote
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]*Quote)}
}

// Lookup reports ok=false when the key was never stored.
func (c *Cache) Lookup(name string) (quote *Quote, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	quote, ok = c.entries[normalizeKey(name)]
	return quote, ok
}

// Store records a result, overwriting any earlier entry for the key.
func (c *Cache) Store(name string, quote *Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[normalizeKey(name)] = quote
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func normalizeKey(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
