package photometry

import (
	"sync"

	"github.com/luxera/luxcalc/pkg/core"
)

// Cache is a content-addressed store of photometric distributions keyed by
// content hash. It is passed into calculation jobs as an explicit
// collaborator rather than living as hidden global state, and is safe for
// concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Distribution
}

// NewCache creates an empty distribution cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*Distribution)}
}

// Put stores a distribution under its content hash and returns the hash.
// Storing the same content twice is a no-op.
func (c *Cache) Put(d *Distribution) string {
	hash := d.ContentHash()
	c.mu.Lock()
	c.entries[hash] = d
	c.mu.Unlock()
	return hash
}

// Lookup returns the distribution for the given content hash, or
// ErrMissingAsset when it is not present.
func (c *Cache) Lookup(hash string) (*Distribution, error) {
	c.mu.RLock()
	d, ok := c.entries[hash]
	c.mu.RUnlock()
	if !ok {
		return nil, core.MissingAssetError("photometric distribution " + hash)
	}
	return d, nil
}

// Len returns the number of cached distributions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
