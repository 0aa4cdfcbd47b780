package semvault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/hupe1980/semvault/cache"
	"github.com/hupe1980/semvault/embedding"
	"github.com/hupe1980/semvault/internal/sqlite"
	"github.com/hupe1980/semvault/metadata"
	"github.com/hupe1980/semvault/vault"
	"github.com/hupe1980/semvault/vectorstore"
)

const (
	cacheFileName      = "cache.db"
	embeddingCacheName = "embedding_cache"
	responseCacheName  = "response_cache"
)

// SemVault is an embedded semantic cache and vector store for markdown
// note vaults. All state lives in a single directory: the vector
// snapshot, the metadata database and the cache database.
type SemVault struct {
	dir        string
	store      *vectorstore.Store
	cacheDB    *sql.DB
	embeddings *cache.KV
	responses  *cache.Semantic
	queries    *cache.EmbeddingLRU
	embedder   embedding.Embedder
	logger     *Logger
	metrics    MetricsCollector
	closed     atomic.Bool
}

// Open opens the store rooted at dir, creating it when empty. The
// directory is locked for the lifetime of the SemVault; a second Open on
// the same directory returns ErrLocked.
//
// Without WithEmbedder the store is still usable for vector search and
// warm-up; operations that embed text return ErrNoEmbedder.
func Open(ctx context.Context, dir string, optFns ...Option) (*SemVault, error) {
	opts := applyOptions(optFns)

	store, err := vectorstore.Open(ctx, dir, func(o *vectorstore.Options) {
		o.Dimension = opts.dimension
		o.Compression = opts.compression
		o.Codec = opts.codec
	})
	if err != nil {
		return nil, translateError(err)
	}

	db, err := sqlite.Open(filepath.Join(dir, cacheFileName))
	if err != nil {
		_ = store.Close(ctx)
		return nil, fmt.Errorf("semvault: open cache db: %w", err)
	}

	embeddings, err := cache.NewKV(ctx, db, func(o *cache.KVOptions) {
		o.Table = embeddingCacheName
		o.TTL = opts.embeddingTTL
		o.Codec = opts.codec
	})
	if err != nil {
		_ = db.Close()
		_ = store.Close(ctx)
		return nil, err
	}

	responses, err := cache.NewSemantic(ctx, db, func(o *cache.SemanticOptions) {
		o.Table = responseCacheName
		o.Threshold = opts.threshold
		o.TTL = opts.responseTTL
	})
	if err != nil {
		_ = db.Close()
		_ = store.Close(ctx)
		return nil, err
	}

	return &SemVault{
		dir:        dir,
		store:      store,
		cacheDB:    db,
		embeddings: embeddings,
		responses:  responses,
		queries:    cache.NewEmbeddingLRU(opts.queryCacheSize, opts.queryCacheTTL),
		embedder:   opts.embedder,
		logger:     opts.logger,
		metrics:    opts.metricsCollector,
	}, nil
}

// UpdateStats summarizes one UpdateEmbeddings run.
type UpdateStats struct {
	// Documents is the number of documents the source yielded.
	Documents int
	// CacheHits is how many documents reused a cached embedding.
	CacheHits int
	// Embedded is how many documents were sent to the provider.
	Embedded int
	// Duration is the wall time of the whole run.
	Duration time.Duration
}

// UpdateEmbeddings ingests every document from source into the vector
// store. Documents whose fingerprint is already in the embedding cache
// reuse the cached vector; the rest are embedded in a single provider
// call. A provider failure aborts the run before anything is inserted,
// so the store never holds a partial batch. On success the snapshot is
// persisted.
func (sv *SemVault) UpdateEmbeddings(ctx context.Context, source vault.Source) (UpdateStats, error) {
	start := time.Now()
	stats, err := sv.updateEmbeddings(ctx, source)
	stats.Duration = time.Since(start)
	err = translateError(err)
	sv.metrics.RecordUpdate(stats.Documents, stats.CacheHits, stats.Embedded, stats.Duration, err)
	sv.logger.LogUpdate(ctx, source.Name(), stats, err)
	return stats, err
}

func (sv *SemVault) updateEmbeddings(ctx context.Context, source vault.Source) (UpdateStats, error) {
	var stats UpdateStats
	if sv.closed.Load() {
		return stats, ErrClosed
	}

	docs, err := source.Documents(ctx)
	if err != nil {
		return stats, fmt.Errorf("semvault: scan %s: %w", source.Name(), err)
	}
	stats.Documents = len(docs)
	if len(docs) == 0 {
		return stats, nil
	}

	vectors := make([][]float32, len(docs))
	var (
		missingTexts []string
		missingIdx   []int
	)
	for i, doc := range docs {
		key := cache.KeyString(doc.Fingerprint)
		vec, ok, err := sv.embeddings.GetVector(ctx, key)
		if err != nil {
			return stats, err
		}
		if ok {
			vectors[i] = vec
			stats.CacheHits++
			sv.metrics.RecordCacheHit(CacheEmbedding)
			continue
		}
		sv.metrics.RecordCacheMiss(CacheEmbedding)
		missingTexts = append(missingTexts, doc.Text)
		missingIdx = append(missingIdx, i)
	}

	if len(missingTexts) > 0 {
		fresh, err := sv.embedTexts(ctx, missingTexts)
		if err != nil {
			return stats, err
		}
		for j, vec := range fresh {
			i := missingIdx[j]
			vectors[i] = vec
			if err := sv.embeddings.SetVector(ctx, cache.KeyString(docs[i].Fingerprint), vec); err != nil {
				return stats, err
			}
		}
		stats.Embedded = len(fresh)
	}

	records := make([]metadata.Record, len(docs))
	for i, doc := range docs {
		records[i] = metadata.Record{
			Title: doc.Title,
			Path:  doc.Path,
			Vault: doc.Vault,
			Extra: doc.Extra,
		}
	}

	if _, err := sv.store.AddVectors(ctx, vectors, records); err != nil {
		return stats, err
	}
	return stats, sv.persist(ctx)
}

// GenerateFunc produces a response for a prompt, typically by calling a
// language model.
type GenerateFunc func(ctx context.Context, prompt string) (string, error)

// CachedGenerate returns a stored response whose prompt embedding is
// similar enough to prompt, calling generate only on a miss and caching
// its result. The returned cached flag reports which path was taken.
func (sv *SemVault) CachedGenerate(ctx context.Context, prompt string, generate GenerateFunc) (string, bool, error) {
	if sv.closed.Load() {
		return "", false, ErrClosed
	}
	if generate == nil {
		return "", false, errors.New("semvault: generate func is required")
	}

	vec, err := sv.embedQuery(ctx, prompt)
	if err != nil {
		return "", false, translateError(err)
	}

	match, ok, err := sv.responses.Get(ctx, vec)
	if err != nil {
		return "", false, err
	}
	if ok {
		sv.metrics.RecordCacheHit(CacheResponse)
		sv.logger.LogGenerate(ctx, true, match.Similarity, nil)
		return match.Response, true, nil
	}
	sv.metrics.RecordCacheMiss(CacheResponse)

	response, err := generate(ctx, prompt)
	if err != nil {
		sv.logger.LogGenerate(ctx, false, 0, err)
		return "", false, fmt.Errorf("semvault: generate: %w", err)
	}
	if err := sv.responses.Set(ctx, vec, response); err != nil {
		return "", false, err
	}
	sv.logger.LogGenerate(ctx, false, 0, nil)
	return response, false, nil
}

// WarmUpResponses bulk-loads precomputed (embedding, response) pairs
// into the response cache and returns the number inserted. Entries with
// an empty embedding or response are skipped.
func (sv *SemVault) WarmUpResponses(ctx context.Context, entries []cache.Entry) (int, error) {
	if sv.closed.Load() {
		return 0, ErrClosed
	}
	added, err := sv.responses.WarmUp(ctx, entries)
	sv.logger.LogWarmUp(ctx, len(entries), added, err)
	return added, err
}

// Stats describes the current store and cache sizes.
type Stats struct {
	// Vectors is the number of indexed vectors.
	Vectors int
	// Dimension is the fixed vector dimension, 0 before the first insert.
	Dimension int
	// Vaults lists the vault names present in the store, sorted.
	Vaults []string
	// EmbeddingCacheEntries counts rows in the durable embedding cache.
	EmbeddingCacheEntries uint64
	// ResponseCacheEntries counts rows in the response cache.
	ResponseCacheEntries uint64
}

// Stats returns a snapshot of store and cache sizes.
func (sv *SemVault) Stats(ctx context.Context) (Stats, error) {
	if sv.closed.Load() {
		return Stats{}, ErrClosed
	}

	embeddingEntries, err := sv.embeddings.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	responseEntries, err := sv.responses.Count(ctx)
	if err != nil {
		return Stats{}, err
	}

	return Stats{
		Vectors:               sv.store.Count(),
		Dimension:             sv.store.Dimension(),
		Vaults:                sv.store.Vaults(),
		EmbeddingCacheEntries: embeddingEntries,
		ResponseCacheEntries:  responseEntries,
	}, nil
}

// Persist writes the in-memory index to the snapshot file.
// UpdateEmbeddings persists on its own; Persist forces a write at any
// other time.
func (sv *SemVault) Persist(ctx context.Context) error {
	if sv.closed.Load() {
		return ErrClosed
	}
	return translateError(sv.persist(ctx))
}

func (sv *SemVault) persist(ctx context.Context) error {
	start := time.Now()
	err := sv.store.Persist(ctx)
	sv.metrics.RecordPersist(time.Since(start), err)
	sv.logger.LogPersist(ctx, sv.store.Count(), err)
	return err
}

// Dir returns the store directory.
func (sv *SemVault) Dir() string {
	return sv.dir
}

// embedTexts sends one batch to the provider and checks the reply shape.
func (sv *SemVault) embedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if sv.embedder == nil {
		return nil, ErrNoEmbedder
	}

	start := time.Now()
	vectors, err := sv.embedder.Embed(ctx, texts)
	sv.metrics.RecordEmbed(len(texts), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("semvault: embed with %s: %w", sv.embedder.Name(), err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("semvault: provider %s returned %d embeddings for %d texts", sv.embedder.Name(), len(vectors), len(texts))
	}
	return vectors, nil
}

// embedQuery memoizes single-text embeddings in the in-memory cache.
func (sv *SemVault) embedQuery(ctx context.Context, text string) ([]float32, error) {
	key := cache.KeyString(text)
	if vec, ok := sv.queries.Get(key); ok {
		sv.metrics.RecordCacheHit(CacheQuery)
		return vec, nil
	}
	sv.metrics.RecordCacheMiss(CacheQuery)

	vectors, err := sv.embedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	sv.queries.Add(key, vectors[0])
	return vectors[0], nil
}
