package store

import (
	"sync"

	"github.com/carelog/carelog/models"
)

// Cache is the synchronous fast-read layer over the durable path. Failures
// here are never fatal: the store logs and swallows them, because the
// durable path alone carries the correctness guarantees.
type Cache interface {
	Get(key string) (models.EncryptedRecord, bool)
	Set(key string, rec models.EncryptedRecord) error
	Delete(key string)
	// DeletePrefix drops every cached entry whose key starts with prefix.
	DeletePrefix(prefix string)
}

// memoryCache is a byte-budgeted in-process cache. Entries are charged by
// ciphertext plus nonce size; an entry that would push the total past the
// quota is rejected with [ErrCacheQuota] rather than evicting others, which
// keeps the cache's behavior predictable for the single-writer engine.
type memoryCache struct {
	mu       sync.RWMutex
	data     map[string]models.EncryptedRecord
	used     int64
	maxBytes int64
}

// NewMemoryCache builds a cache capped at maxBytes.
func NewMemoryCache(maxBytes int64) Cache {
	return &memoryCache{
		data:     make(map[string]models.EncryptedRecord),
		maxBytes: maxBytes,
	}
}

func recordCost(rec models.EncryptedRecord) int64 {
	return int64(len(rec.Ciphertext) + len(rec.Nonce) + len(rec.Metadata))
}

func (c *memoryCache) Get(key string) (models.EncryptedRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.data[key]
	return rec, ok
}

func (c *memoryCache) Set(key string, rec models.EncryptedRecord) error {
	cost := recordCost(rec)

	c.mu.Lock()
	defer c.mu.Unlock()

	used := c.used
	if old, ok := c.data[key]; ok {
		used -= recordCost(old)
	}
	if used+cost > c.maxBytes {
		return ErrCacheQuota
	}

	c.data[key] = rec
	c.used = used + cost
	return nil
}

func (c *memoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.data[key]; ok {
		c.used -= recordCost(old)
		delete(c.data, key)
	}
}

func (c *memoryCache) DeletePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, rec := range c.data {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			c.used -= recordCost(rec)
			delete(c.data, key)
		}
	}
}
