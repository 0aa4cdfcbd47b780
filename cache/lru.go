package cache

import (
	"slices"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultLRUSize bounds the in-memory embedding cache.
const DefaultLRUSize = 1024

// EmbeddingLRU memoizes embeddings in memory keyed by content hash. It
// sits in front of the durable KV cache inside the embedding pipeline.
// Vectors are cloned on both paths so callers and cache never share
// backing arrays.
type EmbeddingLRU struct {
	lru *expirable.LRU[string, []float32]
}

// NewEmbeddingLRU returns a cache holding up to size vectors. A size of 0
// or less falls back to DefaultLRUSize. A ttl of zero disables expiry.
func NewEmbeddingLRU(size int, ttl time.Duration) *EmbeddingLRU {
	if size <= 0 {
		size = DefaultLRUSize
	}
	return &EmbeddingLRU{
		lru: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

// Get returns the vector stored under key.
func (c *EmbeddingLRU) Get(key string) ([]float32, bool) {
	vec, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	return slices.Clone(vec), true
}

// Add stores vec under key, evicting the least recently used entry when
// full.
func (c *EmbeddingLRU) Add(key string, vec []float32) {
	c.lru.Add(key, slices.Clone(vec))
}

// Len returns the number of cached vectors.
func (c *EmbeddingLRU) Len() int {
	return c.lru.Len()
}
