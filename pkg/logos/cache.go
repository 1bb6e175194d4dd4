package logos

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CachedStore serves repeated reads from memory
type CachedStore struct {
	next  ObjectStore
	cache *expirable.LRU[string, []byte]
}

// NewCachedStore wraps next with an LRU of at most size entries, each kept for ttl
func NewCachedStore(next ObjectStore, size int, ttl time.Duration) *CachedStore {
	return &CachedStore{
		next:  next,
		cache: expirable.NewLRU[string, []byte](size, nil, ttl),
	}
}

// Put writes through and primes the cache
func (c *CachedStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := c.next.Put(ctx, key, data, contentType); err != nil {
		return err
	}
	c.cache.Add(key, data)
	return nil
}

// Get returns cached bytes or loads and caches them
func (c *CachedStore) Get(ctx context.Context, key string) ([]byte, error) {
	if data, ok := c.cache.Get(key); ok {
		return data, nil
	}
	data, err := c.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, data)
	return data, nil
}

// Delete removes the object and its cache entry
func (c *CachedStore) Delete(ctx context.Context, key string) error {
	c.cache.Remove(key)
	return c.next.Delete(ctx, key)
}

// Len returns the number of cached entries
func (c *CachedStore) Len() int {
	return c.cache.Len()
}
