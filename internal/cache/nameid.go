package cache

import "sync"

// NameIDCache maps interned names (phase names, event sources) to their
// database IDs for the current run
type NameIDCache struct {
	mu    sync.RWMutex
	names map[string]uint
}

// NewNameIDCache creates a new NameIDCache
func NewNameIDCache() *NameIDCache {
	return &NameIDCache{
		names: make(map[string]uint),
	}
}

// Get retrieves an ID by name
func (c *NameIDCache) Get(name string) (uint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.names[name]
	return id, ok
}

// Set stores an ID by name
func (c *NameIDCache) Set(name string, id uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names[name] = id
}

// Delete removes a name from the cache
func (c *NameIDCache) Delete(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.names, name)
}

// Reset clears the cache
func (c *NameIDCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names = make(map[string]uint)
}
