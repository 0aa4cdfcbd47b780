package semvault

import (
	"context"
	"time"

	"github.com/hupe1980/semvault/metadata"
	"github.com/hupe1980/semvault/vectorstore"
)

// SearchResult is one scored hit with its document metadata.
type SearchResult struct {
	// ID is the vector's insertion offset in the store.
	ID uint32
	// Score is the cosine similarity between query and document, in [-1, 1].
	Score float32
	// Record is the metadata stored with the vector.
	Record metadata.Record
}

// SearchOptions narrows a search.
type SearchOptions struct {
	// Vaults restricts hits to the named vaults. Empty means all vaults.
	Vaults []string
}

// WithVaults restricts a search to the named vaults.
func WithVaults(vaults ...string) func(o *SearchOptions) {
	return func(o *SearchOptions) {
		o.Vaults = vaults
	}
}

// Search embeds query and returns the k most similar documents, highest
// score first. An empty store returns no results.
func (sv *SemVault) Search(ctx context.Context, query string, k int, optFns ...func(o *SearchOptions)) ([]SearchResult, error) {
	start := time.Now()
	results, err := sv.search(ctx, query, k, optFns)
	err = translateError(err)
	sv.metrics.RecordSearch(k, time.Since(start), err)
	sv.logger.LogSearch(ctx, k, len(results), err)
	return results, err
}

func (sv *SemVault) search(ctx context.Context, query string, k int, optFns []func(o *SearchOptions)) ([]SearchResult, error) {
	if sv.closed.Load() {
		return nil, ErrClosed
	}

	vec, err := sv.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return sv.searchVector(ctx, vec, k, optFns)
}

// SearchVector searches with a caller-supplied embedding, skipping the
// provider. It works without a configured embedder.
func (sv *SemVault) SearchVector(ctx context.Context, query []float32, k int, optFns ...func(o *SearchOptions)) ([]SearchResult, error) {
	start := time.Now()
	if sv.closed.Load() {
		err := ErrClosed
		sv.metrics.RecordSearch(k, time.Since(start), err)
		return nil, err
	}

	results, err := sv.searchVector(ctx, query, k, optFns)
	err = translateError(err)
	sv.metrics.RecordSearch(k, time.Since(start), err)
	sv.logger.LogSearch(ctx, k, len(results), err)
	return results, err
}

func (sv *SemVault) searchVector(ctx context.Context, query []float32, k int, optFns []func(o *SearchOptions)) ([]SearchResult, error) {
	var opts SearchOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	hits, err := sv.store.Search(ctx, query, k, vectorstore.WithVaults(opts.Vaults...))
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, len(hits))
	for i, hit := range hits {
		results[i] = SearchResult{ID: hit.ID, Score: hit.Score, Record: hit.Record}
	}
	return results, nil
}

// Query creates a fluent search builder for a text query.
//
// Example:
//
//	results, err := sv.Query("meeting notes about budget").
//	    K(5).
//	    Vaults("work").
//	    Execute(ctx)
func (sv *SemVault) Query(text string) *QueryBuilder {
	return &QueryBuilder{
		sv:   sv,
		text: text,
		k:    10, // Default k
	}
}

// QueryBuilder is a fluent builder for constructing searches.
type QueryBuilder struct {
	sv     *SemVault
	text   string
	k      int
	vaults []string
}

// K sets the number of nearest neighbors to return.
func (qb *QueryBuilder) K(k int) *QueryBuilder {
	qb.k = k
	return qb
}

// Vaults restricts the search to the named vaults.
func (qb *QueryBuilder) Vaults(vaults ...string) *QueryBuilder {
	qb.vaults = vaults
	return qb
}

// Execute runs the search and returns the results.
func (qb *QueryBuilder) Execute(ctx context.Context) ([]SearchResult, error) {
	return qb.sv.Search(ctx, qb.text, qb.k, WithVaults(qb.vaults...))
}

// First returns only the nearest result, or ErrNotFound if none.
func (qb *QueryBuilder) First(ctx context.Context) (SearchResult, error) {
	qb.k = 1
	results, err := qb.Execute(ctx)
	if err != nil {
		return SearchResult{}, err
	}
	if len(results) == 0 {
		return SearchResult{}, ErrNotFound
	}
	return results[0], nil
}

// Exists checks if at least one result matches the search.
func (qb *QueryBuilder) Exists(ctx context.Context) (bool, error) {
	qb.k = 1
	results, err := qb.Execute(ctx)
	if err != nil {
		return false, err
	}
	return len(results) > 0, nil
}
