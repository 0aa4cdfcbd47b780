// Command semvault maintains and queries a semvault store from the
// command line. All commands read the JSON config file passed with
// --config and exit non-zero with a diagnostic on failure.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/cobra"

	"github.com/hupe1980/semvault"
	"github.com/hupe1980/semvault/blobstore"
	miniostore "github.com/hupe1980/semvault/blobstore/minio"
	s3store "github.com/hupe1980/semvault/blobstore/s3"
	"github.com/hupe1980/semvault/cache"
	"github.com/hupe1980/semvault/embedding"
	"github.com/hupe1980/semvault/internal/config"
	"github.com/hupe1980/semvault/vault"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "semvault:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "semvault",
		Short:         "Embedded semantic cache and vector store for note vaults",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "semvault.json", "path to the JSON config file")

	rootCmd.AddCommand(
		newUpdateCmd(&configPath),
		newSearchCmd(&configPath),
		newAskCmd(&configPath),
		newWarmCmd(&configPath),
		newSyncCmd(&configPath),
		newStatsCmd(&configPath),
	)
	return rootCmd
}

// openStore loads the config and opens the store with every configured
// option applied. The returned cleanup closes the store.
func openStore(ctx context.Context, configPath string) (*semvault.SemVault, *config.Config, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	opts := []semvault.Option{
		semvault.WithSemanticThreshold(cfg.Cache.Threshold),
		semvault.WithEmbeddingTTL(cfg.EmbeddingTTL()),
		semvault.WithResponseTTL(cfg.ResponseTTL()),
		semvault.WithQueryCache(cfg.Cache.QueryCacheSize, 0),
	}
	if logger, ok := loggerFor(cfg.LogLevel); ok {
		opts = append(opts, semvault.WithLogger(logger))
	}
	if cfg.Embedding.Provider != "" {
		embedder, err := buildEmbedder(ctx, cfg.Embedding)
		if err != nil {
			return nil, nil, nil, err
		}
		opts = append(opts, semvault.WithEmbedder(embedder))
	}

	sv, err := semvault.Open(ctx, cfg.StoreDir, opts...)
	if err != nil {
		return nil, nil, nil, err
	}
	return sv, cfg, func() { _ = sv.Close(ctx) }, nil
}

func buildEmbedder(ctx context.Context, cfg config.EmbeddingConfig) (embedding.Embedder, error) {
	embedder, err := embedding.New(ctx, cfg.ProviderConfig())
	if err != nil {
		return nil, err
	}
	if cfg.RequestsPerSecond > 0 {
		embedder = embedding.NewRateLimited(embedder, cfg.RequestsPerSecond, cfg.Burst)
	}
	if cfg.RetrySeconds > 0 {
		embedder = embedding.NewRetry(embedder, func(o *embedding.RetryOptions) {
			o.MaxElapsedTime = time.Duration(cfg.RetrySeconds) * time.Second
		})
	}
	return embedder, nil
}

func loggerFor(level string) (*semvault.Logger, bool) {
	switch strings.ToLower(level) {
	case "debug":
		return semvault.NewTextLogger(slog.LevelDebug), true
	case "info":
		return semvault.NewTextLogger(slog.LevelInfo), true
	case "warn":
		return semvault.NewTextLogger(slog.LevelWarn), true
	case "error":
		return semvault.NewTextLogger(slog.LevelError), true
	default:
		return nil, false
	}
}

func newUpdateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Scan the configured vaults and embed new or changed notes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			sv, cfg, cleanup, err := openStore(ctx, *configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			if len(cfg.Vaults) == 0 {
				return fmt.Errorf("no vaults configured")
			}
			for _, vc := range cfg.Vaults {
				scanner, err := vault.NewScanner(vc.Name, vc.Path)
				if err != nil {
					return err
				}
				stats, err := sv.UpdateEmbeddings(ctx, scanner)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d documents, %d cached, %d embedded in %s\n",
					vc.Name, stats.Documents, stats.CacheHits, stats.Embedded, stats.Duration.Round(time.Millisecond))
			}
			return nil
		},
	}
}

func newSearchCmd(configPath *string) *cobra.Command {
	var (
		k      int
		vaults []string
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Return the notes most similar to the query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sv, _, cleanup, err := openStore(ctx, *configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			results, err := sv.Search(ctx, args[0], k, semvault.WithVaults(vaults...))
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no results")
				return nil
			}
			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%.4f  %s  (%s/%s)\n", r.Score, r.Record.Title, r.Record.Vault, r.Record.Path)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&k, "top", "k", 10, "number of results")
	cmd.Flags().StringSliceVar(&vaults, "vault", nil, "restrict to the named vaults")
	return cmd
}

func newAskCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Answer a prompt through the semantic response cache",
		Long: `Ask looks the prompt up in the semantic response cache. On a miss the
response is read from stdin (pipe the model output in) and cached for
similar future prompts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sv, _, cleanup, err := openStore(ctx, *configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			generate := func(_ context.Context, _ string) (string, error) {
				body, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return "", fmt.Errorf("read response from stdin: %w", err)
				}
				response := strings.TrimSpace(string(body))
				if response == "" {
					return "", fmt.Errorf("cache miss and no response on stdin")
				}
				return response, nil
			}

			response, cached, err := sv.CachedGenerate(ctx, args[0], generate)
			if err != nil {
				return err
			}
			if cached {
				fmt.Fprintln(cmd.ErrOrStderr(), "(cached)")
			}
			fmt.Fprintln(cmd.OutOrStdout(), response)
			return nil
		},
	}
}

// warmEntry is the JSON shape of one precomputed warm-up pair.
type warmEntry struct {
	Embedding []float32 `json:"embedding"`
	Response  string    `json:"response"`
}

func newWarmCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "warm <entries.json>",
		Short: "Bulk-load precomputed (embedding, response) pairs into the response cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			body, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var raw []warmEntry
			if err := json.Unmarshal(body, &raw); err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}

			sv, _, cleanup, err := openStore(ctx, *configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			entries := make([]cache.Entry, len(raw))
			for i, e := range raw {
				entries[i] = cache.Entry{Embedding: e.Embedding, Response: e.Response}
			}
			added, err := sv.WarmUpResponses(ctx, entries)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d of %d entries\n", added, len(entries))
			return nil
		},
	}
}

func newSyncCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Replicate the store directory to or from the configured blob store",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "push",
			Short: "Upload the store directory",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runSync(cmd, *configPath, blobstore.Push, "pushed")
			},
		},
		&cobra.Command{
			Use:   "pull",
			Short: "Download the store directory",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runSync(cmd, *configPath, blobstore.Pull, "pulled")
			},
		},
	)
	return cmd
}

func runSync(cmd *cobra.Command, configPath string, op func(context.Context, blobstore.BlobStore, string) (int, error), verb string) error {
	ctx := cmd.Context()
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	store, err := buildBlobStore(ctx, cfg.Sync)
	if err != nil {
		return err
	}
	n, err := op(ctx, store, cfg.StoreDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d files\n", verb, n)
	return nil
}

func buildBlobStore(ctx context.Context, cfg config.SyncConfig) (blobstore.BlobStore, error) {
	switch cfg.Type {
	case "local":
		return blobstore.NewLocalStore(cfg.Dir), nil
	case "s3":
		return s3store.New(ctx, cfg.Bucket,
			s3store.WithPrefix(cfg.Prefix),
			s3store.WithRegion(cfg.Region),
		)
	case "minio":
		client, err := minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		return miniostore.NewStore(client, cfg.Bucket, cfg.Prefix), nil
	default:
		return nil, fmt.Errorf("sync is not configured; set sync.type in the config file")
	}
}

func newStatsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print store and cache sizes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			sv, _, cleanup, err := openStore(ctx, *configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			stats, err := sv.Stats(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "vectors:           %d\n", stats.Vectors)
			fmt.Fprintf(out, "dimension:         %d\n", stats.Dimension)
			fmt.Fprintf(out, "vaults:            %s\n", strings.Join(stats.Vaults, ", "))
			fmt.Fprintf(out, "embedding entries: %d\n", stats.EmbeddingCacheEntries)
			fmt.Fprintf(out, "response entries:  %d\n", stats.ResponseCacheEntries)
			return nil
		},
	}
}
