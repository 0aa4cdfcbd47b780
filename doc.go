// Package semvault provides an embedded semantic cache and vector store
// for markdown note vaults.
//
// SemVault keeps every moving part in a single directory: a flat vector
// index persisted as a checksummed snapshot, document metadata in SQLite,
// and two caches that cut embedding-provider traffic to near zero on
// repeat runs.
//
// # Quick Start
//
//	ctx := context.Background()
//
//	embedder, _ := embedding.New(ctx, embedding.Config{
//	    Provider: "openai",
//	    APIKey:   os.Getenv("OPENAI_API_KEY"),
//	})
//
//	sv, _ := semvault.Open(ctx, "./data", semvault.WithEmbedder(embedder))
//	defer sv.Close(ctx)
//
// Ingest a vault of markdown notes:
//
//	source, _ := vault.NewScanner("notes", "/home/me/notes")
//	stats, _ := sv.UpdateEmbeddings(ctx, source)
//	fmt.Printf("%d documents, %d embedded, %d from cache\n",
//	    stats.Documents, stats.Embedded, stats.CacheHits)
//
// Unchanged documents are detected by fingerprint and reuse their cached
// vectors, so re-running an update embeds only what changed.
//
// # Search
//
// Search embeds the query and returns the most similar documents:
//
//	results, _ := sv.Search(ctx, "meeting notes about budget", 5)
//	for _, r := range results {
//	    fmt.Println(r.Score, r.Record.Title, r.Record.Path)
//	}
//
// Or with the fluent builder:
//
//	hit, _ := sv.Query("quarterly planning").Vaults("work").First(ctx)
//
// # Semantic Response Caching
//
// CachedGenerate short-circuits a language model call when a previous
// prompt was similar enough:
//
//	answer, cached, _ := sv.CachedGenerate(ctx, prompt, callLLM)
//
// The similarity threshold is configurable via WithSemanticThreshold and
// the cache can be preloaded with WarmUpResponses.
//
// # Durability Model
//
// Metadata and cache writes are durable immediately (SQLite). The vector
// index lives in memory and reaches disk as an atomically replaced
// snapshot on UpdateEmbeddings, Persist and Close.
//
// # Key Features
//
//   - Exact (flat) cosine search with per-vault filtering
//   - Content-addressed embedding cache keyed by document fingerprint
//   - Semantic response cache with TTL and warm-up
//   - Checksummed snapshots with optional zstd/lz4 compression
//   - Pluggable embedding providers (OpenAI, Gemini) with retry,
//     rate-limit and caching decorators
//   - Local, in-memory, S3 and MinIO blob stores for store sync
package semvault
