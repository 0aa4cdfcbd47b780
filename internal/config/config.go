// Package config loads the JSON configuration file used by the semvault
// CLI. Library users configure the store through functional options
// instead; this file format exists only for the command line.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hupe1980/semvault/cache"
	"github.com/hupe1980/semvault/embedding"
)

// Config is the root of the CLI configuration file.
type Config struct {
	// StoreDir is the directory holding the snapshot, metadata and cache
	// databases.
	StoreDir string `json:"store_dir"`
	// Vaults lists the note directories to ingest.
	Vaults []VaultConfig `json:"vaults"`
	// Embedding selects and tunes the embedding provider. Optional; a
	// config without it supports vector search and warm-up only.
	Embedding EmbeddingConfig `json:"embedding"`
	// Cache tunes the semantic and key-value caches.
	Cache CacheConfig `json:"cache"`
	// Sync configures the remote blob store for push/pull.
	Sync SyncConfig `json:"sync"`
	// LogLevel is one of debug, info, warn, error. Empty disables logging.
	LogLevel string `json:"log_level"`
}

// VaultConfig names one note directory.
type VaultConfig struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// EmbeddingConfig mirrors embedding.Config plus the decorator knobs.
type EmbeddingConfig struct {
	Provider          string  `json:"provider"`
	Model             string  `json:"model"`
	APIKey            string  `json:"api_key"`
	BaseURL           string  `json:"base_url"`
	TimeoutSeconds    int     `json:"timeout_seconds"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	Burst             int     `json:"burst"`
	RetrySeconds      int     `json:"retry_seconds"`
}

// ProviderConfig converts the file representation to embedding.Config.
func (c EmbeddingConfig) ProviderConfig() embedding.Config {
	return embedding.Config{
		Provider: c.Provider,
		Model:    c.Model,
		APIKey:   c.APIKey,
		BaseURL:  c.BaseURL,
		Timeout:  time.Duration(c.TimeoutSeconds) * time.Second,
	}
}

// CacheConfig tunes cache behavior. Zero values keep the defaults.
type CacheConfig struct {
	Threshold         float64 `json:"threshold"`
	EmbeddingTTLHours int     `json:"embedding_ttl_hours"`
	ResponseTTLHours  int     `json:"response_ttl_hours"`
	QueryCacheSize    int     `json:"query_cache_size"`
}

// SyncConfig selects the remote blob store backend.
type SyncConfig struct {
	// Type is one of local, s3 or minio.
	Type string `json:"type"`
	// Dir is the target directory for the local backend.
	Dir string `json:"dir"`
	// Bucket and Prefix address the object store backends.
	Bucket string `json:"bucket"`
	Prefix string `json:"prefix"`
	// Region applies to the s3 backend.
	Region string `json:"region"`
	// Endpoint, AccessKey, SecretKey and UseSSL apply to the minio backend.
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	UseSSL    bool   `json:"use_ssl"`
}

// Load reads, decodes and validates the config file at path.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.StoreDir == "" {
		return fmt.Errorf("store_dir is required")
	}
	for i, v := range c.Vaults {
		if v.Name == "" || v.Path == "" {
			return fmt.Errorf("vaults[%d]: name and path are required", i)
		}
	}
	if c.Cache.Threshold == 0 {
		c.Cache.Threshold = cache.DefaultThreshold
	}
	if c.Cache.Threshold <= 0 || c.Cache.Threshold > 1 {
		return fmt.Errorf("cache.threshold must be in (0, 1], got %v", c.Cache.Threshold)
	}
	if c.Embedding.Provider != "" {
		pc := c.Embedding.ProviderConfig()
		if err := pc.Validate(); err != nil {
			return err
		}
	}
	switch c.Sync.Type {
	case "":
		// Sync disabled.
	case "local":
		if c.Sync.Dir == "" {
			return fmt.Errorf("sync.dir is required for the local backend")
		}
	case "s3":
		if c.Sync.Bucket == "" {
			return fmt.Errorf("sync.bucket is required for the s3 backend")
		}
	case "minio":
		if c.Sync.Endpoint == "" || c.Sync.Bucket == "" || c.Sync.AccessKey == "" || c.Sync.SecretKey == "" {
			return fmt.Errorf("sync endpoint/bucket/access_key/secret_key are required for the minio backend")
		}
	default:
		return fmt.Errorf("sync.type must be local, s3 or minio, got %q", c.Sync.Type)
	}
	return nil
}

// EmbeddingTTL returns the embedding cache TTL, zero when unset.
func (c *Config) EmbeddingTTL() time.Duration {
	return time.Duration(c.Cache.EmbeddingTTLHours) * time.Hour
}

// ResponseTTL returns the response cache TTL, zero when unset.
func (c *Config) ResponseTTL() time.Duration {
	return time.Duration(c.Cache.ResponseTTLHours) * time.Hour
}
