// Package embedding maps text to fixed-dimension float vectors through
// pluggable remote providers. Providers register themselves by name;
// decorators add caching, rate limiting and retries around the base
// provider, which itself never retries.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 30 * time.Second

var (
	// ErrUnknownProvider indicates a provider name with no registered factory.
	ErrUnknownProvider = errors.New("embedding: unsupported provider")

	// ErrMissingAPIKey indicates a provider that requires a credential got none.
	ErrMissingAPIKey = errors.New("embedding: missing api key")
)

// ProviderError reports a non-success response from a provider backend.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("embedding: %s: status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Embedder maps a batch of texts to one vector per text, in input order.
// Implementations must make a single backend call per Embed invocation.
type Embedder interface {
	// Embed returns len(texts) vectors. A provider failure returns an
	// error and no partial results.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Name identifies the provider for logs and stats.
	Name() string
}

// Config selects and configures an embedding provider.
type Config struct {
	// Provider selects the registered backend, e.g. "openai" or "gemini".
	Provider string `json:"provider"`
	// Model is the provider-specific model identifier.
	Model string `json:"model,omitempty"`
	// APIKey authenticates against the provider.
	APIKey string `json:"api_key,omitempty"`
	// BaseURL overrides the provider endpoint.
	BaseURL string `json:"base_url,omitempty"`
	// Timeout bounds each provider call. Zero means DefaultTimeout.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// Validate checks the fields every provider needs.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return errors.New("embedding: provider is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("embedding: negative timeout %s", c.Timeout)
	}
	return nil
}

// Factory builds an Embedder from a validated config.
type Factory func(ctx context.Context, cfg Config) (Embedder, error)

// providers is only written from package init functions.
var providers = make(map[string]Factory)

// Register makes a provider available under name. It must be called from
// an init function.
func Register(name string, factory Factory) {
	providers[name] = factory
}

// New builds the provider selected by cfg. Unknown providers and invalid
// configs fail here, before any backend traffic.
func New(ctx context.Context, cfg Config) (Embedder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
	return factory(ctx, cfg)
}
