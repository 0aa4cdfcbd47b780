// Package cache provides the two SQLite-backed caches used around the
// embedding pipeline: KV, an exact-match store keyed by content hash, and
// Semantic, a similarity-match store over query embeddings. Both expire
// entries lazily on read.
package cache
