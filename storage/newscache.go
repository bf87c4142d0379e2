package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/richinex/seekr/search"
)

// MemoryNewsCache is a process-wide news cache. Each Set replaces a
// category's entry as a whole, so readers never see a partial update.
type MemoryNewsCache struct {
	mu      sync.RWMutex
	entries map[string]search.NewsEntry
}

// NewMemoryNewsCache creates an empty cache.
func NewMemoryNewsCache() *MemoryNewsCache {
	return &MemoryNewsCache{entries: make(map[string]search.NewsEntry)}
}

// Get returns the entry for category.
func (c *MemoryNewsCache) Get(_ context.Context, category string) (search.NewsEntry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[category]
	if !ok {
		return search.NewsEntry{}, false, nil
	}
	e.Articles = slices.Clone(e.Articles)
	return e, true, nil
}

// Set replaces the entry for category.
func (c *MemoryNewsCache) Set(_ context.Context, category string, entry search.NewsEntry) error {
	entry.Articles = slices.Clone(entry.Articles)

	c.mu.Lock()
	c.entries[category] = entry
	c.mu.Unlock()
	return nil
}

var _ search.NewsCache = (*MemoryNewsCache)(nil)
