package semvault

import (
	"sync/atomic"
	"time"
)

// CacheKind names one of the cache layers in metrics hooks.
type CacheKind string

const (
	// CacheEmbedding is the durable fingerprint-to-vector cache.
	CacheEmbedding CacheKind = "embedding"
	// CacheResponse is the semantic response cache.
	CacheResponse CacheKind = "response"
	// CacheQuery is the in-memory query embedding cache.
	CacheQuery CacheKind = "query"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    searchHistogram prometheus.Histogram
//	    cacheHitCounter *prometheus.CounterVec
//	}
//
//	func (p *PrometheusCollector) RecordSearch(k int, duration time.Duration, err error) {
//	    p.searchHistogram.Observe(duration.Seconds())
//	    // ... record error state, etc.
//	}
type MetricsCollector interface {
	// RecordUpdate is called after each embedding update run.
	// documents is the number of documents the source yielded, cacheHits is
	// how many reused a cached embedding, embedded is how many went to the
	// provider. err is nil if successful.
	RecordUpdate(documents, cacheHits, embedded int, duration time.Duration, err error)

	// RecordEmbed is called after each embedding provider call.
	// texts is the batch size, duration is the time taken.
	RecordEmbed(texts int, duration time.Duration, err error)

	// RecordSearch is called after each search operation.
	// k is the number of neighbors requested, duration is the time taken,
	// err is nil if successful.
	RecordSearch(k int, duration time.Duration, err error)

	// RecordCacheHit is called when a cache layer serves a lookup.
	RecordCacheHit(kind CacheKind)

	// RecordCacheMiss is called when a cache layer misses.
	RecordCacheMiss(kind CacheKind)

	// RecordPersist is called after each snapshot persist.
	RecordPersist(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordUpdate(int, int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordEmbed(int, time.Duration, error)            {}
func (NoopMetricsCollector) RecordSearch(int, time.Duration, error)           {}
func (NoopMetricsCollector) RecordCacheHit(CacheKind)                         {}
func (NoopMetricsCollector) RecordCacheMiss(CacheKind)                        {}
func (NoopMetricsCollector) RecordPersist(time.Duration, error)               {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	UpdateCount          atomic.Int64
	UpdateErrors         atomic.Int64
	DocumentsSeen        atomic.Int64
	DocumentsEmbedded    atomic.Int64
	EmbedCount           atomic.Int64
	EmbedErrors          atomic.Int64
	EmbedTotalNanos      atomic.Int64
	SearchCount          atomic.Int64
	SearchErrors         atomic.Int64
	SearchTotalNanos     atomic.Int64
	EmbeddingCacheHits   atomic.Int64
	EmbeddingCacheMisses atomic.Int64
	ResponseCacheHits    atomic.Int64
	ResponseCacheMisses  atomic.Int64
	QueryCacheHits       atomic.Int64
	QueryCacheMisses     atomic.Int64
	PersistCount         atomic.Int64
	PersistErrors        atomic.Int64
}

// RecordUpdate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordUpdate(documents, cacheHits, embedded int, duration time.Duration, err error) {
	b.UpdateCount.Add(1)
	b.DocumentsSeen.Add(int64(documents))
	b.DocumentsEmbedded.Add(int64(embedded))
	if err != nil {
		b.UpdateErrors.Add(1)
	}
}

// RecordEmbed implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEmbed(texts int, duration time.Duration, err error) {
	b.EmbedCount.Add(1)
	b.EmbedTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.EmbedErrors.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(k int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordCacheHit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCacheHit(kind CacheKind) {
	switch kind {
	case CacheEmbedding:
		b.EmbeddingCacheHits.Add(1)
	case CacheResponse:
		b.ResponseCacheHits.Add(1)
	case CacheQuery:
		b.QueryCacheHits.Add(1)
	}
}

// RecordCacheMiss implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCacheMiss(kind CacheKind) {
	switch kind {
	case CacheEmbedding:
		b.EmbeddingCacheMisses.Add(1)
	case CacheResponse:
		b.ResponseCacheMisses.Add(1)
	case CacheQuery:
		b.QueryCacheMisses.Add(1)
	}
}

// RecordPersist implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPersist(duration time.Duration, err error) {
	b.PersistCount.Add(1)
	if err != nil {
		b.PersistErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		UpdateCount:          b.UpdateCount.Load(),
		UpdateErrors:         b.UpdateErrors.Load(),
		DocumentsSeen:        b.DocumentsSeen.Load(),
		DocumentsEmbedded:    b.DocumentsEmbedded.Load(),
		EmbedCount:           b.EmbedCount.Load(),
		EmbedErrors:          b.EmbedErrors.Load(),
		EmbedAvgNanos:        b.getAvgEmbedNanos(),
		SearchCount:          b.SearchCount.Load(),
		SearchErrors:         b.SearchErrors.Load(),
		SearchAvgNanos:       b.getAvgSearchNanos(),
		EmbeddingCacheHits:   b.EmbeddingCacheHits.Load(),
		EmbeddingCacheMisses: b.EmbeddingCacheMisses.Load(),
		ResponseCacheHits:    b.ResponseCacheHits.Load(),
		ResponseCacheMisses:  b.ResponseCacheMisses.Load(),
		QueryCacheHits:       b.QueryCacheHits.Load(),
		QueryCacheMisses:     b.QueryCacheMisses.Load(),
		PersistCount:         b.PersistCount.Load(),
		PersistErrors:        b.PersistErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgEmbedNanos() int64 {
	count := b.EmbedCount.Load()
	if count == 0 {
		return 0
	}
	return b.EmbedTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgSearchNanos() int64 {
	count := b.SearchCount.Load()
	if count == 0 {
		return 0
	}
	return b.SearchTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	UpdateCount          int64
	UpdateErrors         int64
	DocumentsSeen        int64
	DocumentsEmbedded    int64
	EmbedCount           int64
	EmbedErrors          int64
	EmbedAvgNanos        int64
	SearchCount          int64
	SearchErrors         int64
	SearchAvgNanos       int64
	EmbeddingCacheHits   int64
	EmbeddingCacheMisses int64
	ResponseCacheHits    int64
	ResponseCacheMisses  int64
	QueryCacheHits       int64
	QueryCacheMisses     int64
	PersistCount         int64
	PersistErrors        int64
}
