package semvault

import (
	"log/slog"
	"time"

	"github.com/hupe1980/semvault/cache"
	"github.com/hupe1980/semvault/codec"
	"github.com/hupe1980/semvault/embedding"
	"github.com/hupe1980/semvault/persistence"
)

type options struct {
	embedder         embedding.Embedder
	dimension        int
	compression      persistence.CompressionType
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	threshold        float64
	embeddingTTL     time.Duration
	responseTTL      time.Duration
	queryCacheSize   int
	queryCacheTTL    time.Duration
}

// Option configures SemVault constructor behavior.
type Option func(*options)

// WithEmbedder configures the embedding provider used to vectorize
// documents and queries.
//
// A SemVault opened without an embedder can still be searched with
// caller-supplied vectors (SearchVector) and warmed up with precomputed
// entries; operations that need to embed text return ErrNoEmbedder.
func WithEmbedder(e embedding.Embedder) Option {
	return func(o *options) {
		o.embedder = e
	}
}

// WithDimension pins the vector dimension for an empty store. Without it
// the dimension is fixed by the first inserted vector or an existing
// snapshot.
func WithDimension(dim int) Option {
	return func(o *options) {
		o.dimension = dim
	}
}

// WithCompression configures the snapshot payload compression.
func WithCompression(c persistence.CompressionType) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithCodec configures the codec used for metadata and cached values.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithSemanticThreshold configures the minimum cosine similarity for a
// response cache hit. Values must be in (0, 1]; the default is
// cache.DefaultThreshold.
func WithSemanticThreshold(threshold float64) Option {
	return func(o *options) {
		o.threshold = threshold
	}
}

// WithEmbeddingTTL bounds the age of durable fingerprint-to-vector cache
// entries. Zero (the default) disables expiry.
func WithEmbeddingTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.embeddingTTL = ttl
	}
}

// WithResponseTTL bounds the age of semantic response cache entries.
// Zero (the default) disables expiry.
func WithResponseTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.responseTTL = ttl
	}
}

// WithQueryCache sizes the in-memory query embedding cache. A size of 0
// or less falls back to cache.DefaultLRUSize; a ttl of zero disables
// expiry.
func WithQueryCache(size int, ttl time.Duration) Option {
	return func(o *options) {
		o.queryCacheSize = size
		o.queryCacheTTL = ttl
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &semvault.BasicMetricsCollector{}
//	sv, _ := semvault.Open(ctx, dir, semvault.WithMetricsCollector(metrics))
//	// ... use sv ...
//	stats := metrics.GetStats()
//	fmt.Printf("Searches: %d, Avg latency: %dns\n", stats.SearchCount, stats.SearchAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := semvault.NewJSONLogger(slog.LevelInfo)
//	sv, _ := semvault.Open(ctx, dir, semvault.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		compression:      persistence.CompressionNone,
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		threshold:        cache.DefaultThreshold,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
