package tinypm

import (
	"context"
	"errors"
)

// Compile-time interface compliance checks
var (
	_ MetadataCache = NoopCache{}
	_ MetadataCache = (*MemoryCache)(nil)
	_ MetadataCache = (*FailingCache)(nil)
	_ MetadataCache = (*DiskCache)(nil)
)

// NoopCache is a cache that discards all writes and always returns cache misses.
// Useful for testing without caching overhead.
type NoopCache struct{}

// Get always returns a cache miss.
func (NoopCache) Get(ctx context.Context, name string) ([]byte, bool, error) {
	return nil, false, nil
}

// Put discards the content and returns success.
func (NoopCache) Put(ctx context.Context, name string, data []byte) error {
	return nil
}

// FailingCache is a cache that always returns errors.
// Useful for testing error handling paths.
type FailingCache struct {
	GetErr error
	PutErr error
}

// NewFailingCache creates a cache that fails with the given errors.
func NewFailingCache(getErr, putErr error) *FailingCache {
	if getErr == nil {
		getErr = errors.New("cache get failed")
	}
	if putErr == nil {
		putErr = errors.New("cache put failed")
	}
	return &FailingCache{GetErr: getErr, PutErr: putErr}
}

// Get always returns an error.
func (c *FailingCache) Get(ctx context.Context, name string) ([]byte, bool, error) {
	return nil, false, c.GetErr
}

// Put always returns an error.
func (c *FailingCache) Put(ctx context.Context, name string, data []byte) error {
	return c.PutErr
}
