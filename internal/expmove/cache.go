package expmove

import (
	"sync"
	"time"

	"github.com/optbench/options-workbench/pkg/models"
)

type cacheKey struct {
	symbol string
	expiry int64
}

func keyFor(symbol string, expiration time.Time) cacheKey {
	return cacheKey{symbol: symbol, expiry: expiration.Unix()}
}

// Cache freezes expected-move values by (symbol, expiration). A key is
// written once and re-served forever after: refreshed upstream quotes
// never invalidate it, only a new key (a different expiration) does.
// The cache is the engine's only shared mutable state, so it is the one
// place that takes a lock.
type Cache struct {
	mu      sync.RWMutex
	entries map[cacheKey]models.ExpectedMove
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]models.ExpectedMove)}
}

// Get returns the frozen value for the key, if any
func (c *Cache) Get(symbol string, expiration time.Time) (models.ExpectedMove, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	em, ok := c.entries[keyFor(symbol, expiration)]
	return em, ok
}

// PutIfAbsent stores the value unless the key already holds one, and
// returns whichever value is frozen for the key. Inserting the same key
// twice is idempotent.
func (c *Cache) PutIfAbsent(em models.ExpectedMove) models.ExpectedMove {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := keyFor(em.Symbol, em.Expiration)
	if existing, ok := c.entries[k]; ok {
		return existing
	}
	c.entries[k] = em
	return em
}

// Len returns the number of frozen entries
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
