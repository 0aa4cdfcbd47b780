package embedding

import (
	"context"
	"fmt"

	"github.com/hupe1980/semvault/cache"
)

// Cached wraps an Embedder with a durable KV cache and an in-memory LRU,
// both keyed by the content hash of the text. Only texts missing from
// both layers reach the wrapped embedder, in a single batched call whose
// results are written back to both layers.
type Cached struct {
	inner Embedder
	kv    *cache.KV
	lru   *cache.EmbeddingLRU
}

// NewCached returns a caching decorator around inner. Either cache layer
// may be nil.
func NewCached(inner Embedder, kv *cache.KV, lru *cache.EmbeddingLRU) *Cached {
	return &Cached{inner: inner, kv: kv, lru: lru}
}

// Name implements Embedder.
func (c *Cached) Name() string {
	return c.inner.Name()
}

// Embed implements Embedder.
func (c *Cached) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(texts))

	var (
		missing    []string
		missingIdx []int
	)
	for i, text := range texts {
		key := cache.KeyString(text)

		if c.lru != nil {
			if vec, ok := c.lru.Get(key); ok {
				vectors[i] = vec
				continue
			}
		}
		if c.kv != nil {
			vec, ok, err := c.kv.GetVector(ctx, key)
			if err != nil {
				return nil, err
			}
			if ok {
				vectors[i] = vec
				if c.lru != nil {
					c.lru.Add(key, vec)
				}
				continue
			}
		}

		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return vectors, nil
	}

	fresh, err := c.inner.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missing) {
		return nil, fmt.Errorf("embedding: %s: got %d embeddings for %d inputs", c.inner.Name(), len(fresh), len(missing))
	}

	for j, vec := range fresh {
		i := missingIdx[j]
		vectors[i] = vec

		key := cache.KeyString(texts[i])
		if c.kv != nil {
			if err := c.kv.SetVector(ctx, key, vec); err != nil {
				return nil, err
			}
		}
		if c.lru != nil {
			c.lru.Add(key, vec)
		}
	}
	return vectors, nil
}
