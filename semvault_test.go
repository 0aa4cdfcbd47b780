package semvault_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/semvault"
	"github.com/hupe1980/semvault/cache"
	"github.com/hupe1980/semvault/vault"
)

// fakeEmbedder maps texts to fixed unit vectors by keyword, so tests
// control similarity exactly. It records every batch it receives.
type fakeEmbedder struct {
	calls   int
	batches [][]string
	err     error
}

func (f *fakeEmbedder) Name() string { return "fake" }

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	f.batches = append(f.batches, slices.Clone(texts))
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = keywordVector(text)
	}
	return out, nil
}

func keywordVector(text string) []float32 {
	switch {
	case strings.Contains(text, "almost alpha"):
		return []float32{0.96, 0.28, 0}
	case strings.Contains(text, "alpha"):
		return []float32{1, 0, 0}
	case strings.Contains(text, "beta"):
		return []float32{0, 1, 0}
	default:
		return []float32{0, 0, 1}
	}
}

func writeNote(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func newScanner(t *testing.T, name, root string) *vault.Scanner {
	t.Helper()
	scanner, err := vault.NewScanner(name, root)
	require.NoError(t, err)
	return scanner
}

func TestSemVault(t *testing.T) {
	ctx := context.Background()

	t.Run("UpdateAndSearch", func(t *testing.T) {
		notes := t.TempDir()
		writeNote(t, notes, "alpha.md", "---\ntitle: Alpha\n---\n\nalpha budget planning")
		writeNote(t, notes, "beta.md", "---\ntitle: Beta\n---\n\nbeta release checklist")

		fake := &fakeEmbedder{}
		sv, err := semvault.Open(ctx, t.TempDir(), semvault.WithEmbedder(fake))
		require.NoError(t, err)
		defer sv.Close(ctx)

		stats, err := sv.UpdateEmbeddings(ctx, newScanner(t, "notes", notes))
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Documents)
		assert.Equal(t, 2, stats.Embedded)
		assert.Equal(t, 0, stats.CacheHits)
		assert.Equal(t, 1, fake.calls, "all misses go out in one batch")

		results, err := sv.Search(ctx, "alpha budget", 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "Alpha", results[0].Record.Title)
		assert.Equal(t, "notes", results[0].Record.Vault)
		assert.InDelta(t, 1.0, float64(results[0].Score), 1e-5)
	})

	t.Run("FingerprintCacheSkipsProvider", func(t *testing.T) {
		notes := t.TempDir()
		writeNote(t, notes, "alpha.md", "alpha one")

		fake := &fakeEmbedder{}
		sv, err := semvault.Open(ctx, t.TempDir(), semvault.WithEmbedder(fake))
		require.NoError(t, err)
		defer sv.Close(ctx)

		_, err = sv.UpdateEmbeddings(ctx, newScanner(t, "notes", notes))
		require.NoError(t, err)

		writeNote(t, notes, "beta.md", "beta two")
		writeNote(t, notes, "gamma.md", "gamma three")

		stats, err := sv.UpdateEmbeddings(ctx, newScanner(t, "notes", notes))
		require.NoError(t, err)
		assert.Equal(t, 3, stats.Documents)
		assert.Equal(t, 1, stats.CacheHits, "unchanged note reuses its cached vector")
		assert.Equal(t, 2, stats.Embedded)

		require.Equal(t, 2, fake.calls)
		lastBatch := fake.batches[len(fake.batches)-1]
		assert.Len(t, lastBatch, 2, "only the new notes reach the provider")
		for _, text := range lastBatch {
			assert.NotContains(t, text, "alpha one")
		}

		storeStats, err := sv.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, storeStats.Vectors, "every run appends all scanned documents")
	})

	t.Run("ProviderFailureAbortsRun", func(t *testing.T) {
		notes := t.TempDir()
		writeNote(t, notes, "alpha.md", "alpha one")

		fake := &fakeEmbedder{err: errors.New("quota exceeded")}
		sv, err := semvault.Open(ctx, t.TempDir(), semvault.WithEmbedder(fake))
		require.NoError(t, err)
		defer sv.Close(ctx)

		_, err = sv.UpdateEmbeddings(ctx, newScanner(t, "notes", notes))
		require.ErrorContains(t, err, "quota exceeded")

		stats, err := sv.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.Vectors, "nothing is inserted when embedding fails")
	})

	t.Run("NoEmbedder", func(t *testing.T) {
		notes := t.TempDir()
		writeNote(t, notes, "alpha.md", "alpha one")

		sv, err := semvault.Open(ctx, t.TempDir())
		require.NoError(t, err)
		defer sv.Close(ctx)

		_, err = sv.UpdateEmbeddings(ctx, newScanner(t, "notes", notes))
		assert.ErrorIs(t, err, semvault.ErrNoEmbedder)

		_, err = sv.Search(ctx, "alpha", 1)
		assert.ErrorIs(t, err, semvault.ErrNoEmbedder)

		results, err := sv.SearchVector(ctx, []float32{1, 0, 0}, 1)
		require.NoError(t, err, "vector search works without a provider")
		assert.Empty(t, results)
	})

	t.Run("VaultFilter", func(t *testing.T) {
		work := t.TempDir()
		writeNote(t, work, "alpha.md", "alpha work")
		home := t.TempDir()
		writeNote(t, home, "beta.md", "beta home")

		sv, err := semvault.Open(ctx, t.TempDir(), semvault.WithEmbedder(&fakeEmbedder{}))
		require.NoError(t, err)
		defer sv.Close(ctx)

		_, err = sv.UpdateEmbeddings(ctx, newScanner(t, "work", work))
		require.NoError(t, err)
		_, err = sv.UpdateEmbeddings(ctx, newScanner(t, "home", home))
		require.NoError(t, err)

		results, err := sv.Search(ctx, "beta home", 10, semvault.WithVaults("work"))
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "work", results[0].Record.Vault)

		results, err = sv.Search(ctx, "beta home", 10, semvault.WithVaults("missing"))
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("QueryBuilder", func(t *testing.T) {
		notes := t.TempDir()
		writeNote(t, notes, "alpha.md", "alpha one")
		writeNote(t, notes, "beta.md", "beta two")

		sv, err := semvault.Open(ctx, t.TempDir(), semvault.WithEmbedder(&fakeEmbedder{}))
		require.NoError(t, err)
		defer sv.Close(ctx)

		_, err = sv.UpdateEmbeddings(ctx, newScanner(t, "notes", notes))
		require.NoError(t, err)

		hit, err := sv.Query("alpha one").First(ctx)
		require.NoError(t, err)
		assert.Equal(t, "alpha", hit.Record.Title)

		ok, err := sv.Query("beta two").Vaults("notes").Exists(ctx)
		require.NoError(t, err)
		assert.True(t, ok)

		_, err = sv.Query("alpha one").Vaults("missing").First(ctx)
		assert.ErrorIs(t, err, semvault.ErrNotFound)
	})

	t.Run("Closed", func(t *testing.T) {
		sv, err := semvault.Open(ctx, t.TempDir(), semvault.WithEmbedder(&fakeEmbedder{}))
		require.NoError(t, err)
		require.NoError(t, sv.Close(ctx))

		_, err = sv.Search(ctx, "alpha", 1)
		assert.ErrorIs(t, err, semvault.ErrClosed)

		_, err = sv.Stats(ctx)
		assert.ErrorIs(t, err, semvault.ErrClosed)

		err = sv.Persist(ctx)
		assert.ErrorIs(t, err, semvault.ErrClosed)

		_, _, err = sv.CachedGenerate(ctx, "alpha", func(context.Context, string) (string, error) {
			return "", nil
		})
		assert.ErrorIs(t, err, semvault.ErrClosed)
	})
}

func TestCachedGenerate(t *testing.T) {
	ctx := context.Background()

	newGenerate := func(response string) (*int, semvault.GenerateFunc) {
		calls := new(int)
		return calls, func(context.Context, string) (string, error) {
			*calls++
			return response, nil
		}
	}

	t.Run("MissThenHit", func(t *testing.T) {
		sv, err := semvault.Open(ctx, t.TempDir(), semvault.WithEmbedder(&fakeEmbedder{}))
		require.NoError(t, err)
		defer sv.Close(ctx)

		calls, generate := newGenerate("use goroutines")

		response, cached, err := sv.CachedGenerate(ctx, "alpha question", generate)
		require.NoError(t, err)
		assert.False(t, cached)
		assert.Equal(t, "use goroutines", response)
		assert.Equal(t, 1, *calls)

		response, cached, err = sv.CachedGenerate(ctx, "alpha question", generate)
		require.NoError(t, err)
		assert.True(t, cached)
		assert.Equal(t, "use goroutines", response)
		assert.Equal(t, 1, *calls, "repeat prompt never reaches the model")
	})

	t.Run("SimilarPromptHits", func(t *testing.T) {
		sv, err := semvault.Open(ctx, t.TempDir(), semvault.WithEmbedder(&fakeEmbedder{}))
		require.NoError(t, err)
		defer sv.Close(ctx)

		calls, generate := newGenerate("use goroutines")

		_, _, err = sv.CachedGenerate(ctx, "alpha question", generate)
		require.NoError(t, err)

		// keywordVector("almost alpha ...") has cosine 0.96 to the stored
		// prompt, above the 0.95 default threshold.
		response, cached, err := sv.CachedGenerate(ctx, "almost alpha question", generate)
		require.NoError(t, err)
		assert.True(t, cached)
		assert.Equal(t, "use goroutines", response)
		assert.Equal(t, 1, *calls)
	})

	t.Run("DissimilarPromptMisses", func(t *testing.T) {
		sv, err := semvault.Open(ctx, t.TempDir(), semvault.WithEmbedder(&fakeEmbedder{}))
		require.NoError(t, err)
		defer sv.Close(ctx)

		calls, generate := newGenerate("answer")

		_, _, err = sv.CachedGenerate(ctx, "alpha question", generate)
		require.NoError(t, err)

		_, cached, err := sv.CachedGenerate(ctx, "beta question", generate)
		require.NoError(t, err)
		assert.False(t, cached)
		assert.Equal(t, 2, *calls)
	})

	t.Run("GenerateFailureIsNotCached", func(t *testing.T) {
		sv, err := semvault.Open(ctx, t.TempDir(), semvault.WithEmbedder(&fakeEmbedder{}))
		require.NoError(t, err)
		defer sv.Close(ctx)

		boom := errors.New("model unavailable")
		_, _, err = sv.CachedGenerate(ctx, "alpha question", func(context.Context, string) (string, error) {
			return "", boom
		})
		assert.ErrorIs(t, err, boom)

		stats, err := sv.Stats(ctx)
		require.NoError(t, err)
		assert.Zero(t, stats.ResponseCacheEntries)
	})

	t.Run("StricterThreshold", func(t *testing.T) {
		sv, err := semvault.Open(ctx, t.TempDir(),
			semvault.WithEmbedder(&fakeEmbedder{}),
			semvault.WithSemanticThreshold(0.99),
		)
		require.NoError(t, err)
		defer sv.Close(ctx)

		calls, generate := newGenerate("answer")

		_, _, err = sv.CachedGenerate(ctx, "alpha question", generate)
		require.NoError(t, err)

		_, cached, err := sv.CachedGenerate(ctx, "almost alpha question", generate)
		require.NoError(t, err)
		assert.False(t, cached, "0.96 similarity is below the 0.99 threshold")
		assert.Equal(t, 2, *calls)
	})
}

func TestWarmUpResponses(t *testing.T) {
	ctx := context.Background()

	sv, err := semvault.Open(ctx, t.TempDir(), semvault.WithEmbedder(&fakeEmbedder{}))
	require.NoError(t, err)
	defer sv.Close(ctx)

	added, err := sv.WarmUpResponses(ctx, []cache.Entry{
		{Embedding: []float32{1, 0, 0}, Response: "use goroutines"},
		{Embedding: nil, Response: "skipped"},
		{Embedding: []float32{0, 1, 0}, Response: ""},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	calls := 0
	response, cached, err := sv.CachedGenerate(ctx, "alpha question", func(context.Context, string) (string, error) {
		calls++
		return "", nil
	})
	require.NoError(t, err)
	assert.True(t, cached, "warmed entry serves the first live prompt")
	assert.Equal(t, "use goroutines", response)
	assert.Zero(t, calls)
}

func TestStats(t *testing.T) {
	ctx := context.Background()

	notes := t.TempDir()
	writeNote(t, notes, "alpha.md", "alpha one")
	writeNote(t, notes, "beta.md", "beta two")

	sv, err := semvault.Open(ctx, t.TempDir(), semvault.WithEmbedder(&fakeEmbedder{}))
	require.NoError(t, err)
	defer sv.Close(ctx)

	stats, err := sv.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Vectors)
	assert.Zero(t, stats.Dimension)

	_, err = sv.UpdateEmbeddings(ctx, newScanner(t, "notes", notes))
	require.NoError(t, err)

	stats, err = sv.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Vectors)
	assert.Equal(t, 3, stats.Dimension)
	assert.Equal(t, []string{"notes"}, stats.Vaults)
	assert.Equal(t, uint64(2), stats.EmbeddingCacheEntries)
	assert.Zero(t, stats.ResponseCacheEntries)
}

func TestMetricsCollection(t *testing.T) {
	ctx := context.Background()

	notes := t.TempDir()
	writeNote(t, notes, "alpha.md", "alpha one")

	metrics := &semvault.BasicMetricsCollector{}
	sv, err := semvault.Open(ctx, t.TempDir(),
		semvault.WithEmbedder(&fakeEmbedder{}),
		semvault.WithMetricsCollector(metrics),
	)
	require.NoError(t, err)
	defer sv.Close(ctx)

	_, err = sv.UpdateEmbeddings(ctx, newScanner(t, "notes", notes))
	require.NoError(t, err)
	_, err = sv.UpdateEmbeddings(ctx, newScanner(t, "notes", notes))
	require.NoError(t, err)

	_, err = sv.Search(ctx, "alpha one", 1)
	require.NoError(t, err)

	stats := metrics.GetStats()
	assert.Equal(t, int64(2), stats.UpdateCount)
	assert.Equal(t, int64(2), stats.DocumentsSeen)
	assert.Equal(t, int64(1), stats.DocumentsEmbedded)
	assert.Equal(t, int64(1), stats.EmbeddingCacheHits)
	assert.Equal(t, int64(1), stats.EmbeddingCacheMisses)
	assert.Equal(t, int64(1), stats.SearchCount)
	assert.Equal(t, int64(2), stats.EmbedCount, "one document batch plus one query")
	assert.Zero(t, stats.UpdateErrors)
}
