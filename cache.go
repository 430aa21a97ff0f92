package tinypm

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MetadataCache stores raw packument documents by package name.
// Implementations must be safe for concurrent use. A cache error never fails
// a resolution; the registry is consulted instead.
type MetadataCache interface {
	// Get returns the cached document. ok is false on a miss.
	Get(ctx context.Context, name string) (data []byte, ok bool, err error)

	// Put stores a document.
	Put(ctx context.Context, name string, data []byte) error
}

// DefaultMemoryCacheSize is the entry limit used by NewMemoryCache(0).
const DefaultMemoryCacheSize = 1024

// MemoryCache is a bounded in-memory cache that evicts the least recently
// used document.
type MemoryCache struct {
	items *lru.Cache[string, []byte]
}

// NewMemoryCache creates a cache holding at most size documents.
// A size of zero or less uses DefaultMemoryCacheSize.
func NewMemoryCache(size int) *MemoryCache {
	if size <= 0 {
		size = DefaultMemoryCacheSize
	}
	items, err := lru.New[string, []byte](size)
	if err != nil {
		// lru.New only fails for non-positive sizes.
		panic(fmt.Sprintf("tinypm: memory cache: %v", err))
	}
	return &MemoryCache{items: items}
}

// Get retrieves a cached document.
func (c *MemoryCache) Get(ctx context.Context, name string) ([]byte, bool, error) {
	content, ok := c.items.Get(name)
	if !ok {
		return nil, false, nil
	}
	// Return a copy to prevent mutation
	result := make([]byte, len(content))
	copy(result, content)
	return result, true, nil
}

// Put stores a document.
func (c *MemoryCache) Put(ctx context.Context, name string, data []byte) error {
	stored := make([]byte, len(data))
	copy(stored, data)
	c.items.Add(name, stored)
	return nil
}

// Clear removes all entries from the cache.
func (c *MemoryCache) Clear() {
	c.items.Purge()
}

// Len returns the number of cached entries.
func (c *MemoryCache) Len() int {
	return c.items.Len()
}
