package embedding

import (
	"context"
	"crypto/sha256"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder records every batch it receives and returns a
// deterministic vector per text.
type fakeEmbedder struct {
	name    string
	calls   int
	batches [][]string
	fn      func(texts []string) ([][]float32, error)
}

func (f *fakeEmbedder) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	f.batches = append(f.batches, slices.Clone(texts))
	if f.fn != nil {
		return f.fn(texts)
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = testVector(text)
	}
	return out, nil
}

// testVector derives a stable 3-dim vector from text.
func testVector(text string) []float32 {
	sum := sha256.Sum256([]byte(text))
	return []float32{
		float32(sum[0]) + 1,
		float32(sum[1]) + 1,
		float32(sum[2]) + 1,
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("provider required", func(t *testing.T) {
		cfg := Config{}
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative timeout", func(t *testing.T) {
		cfg := Config{Provider: "openai", Timeout: -1}
		assert.Error(t, cfg.Validate())
	})

	t.Run("valid", func(t *testing.T) {
		cfg := Config{Provider: "openai", Model: "text-embedding-3-small", APIKey: "k"}
		assert.NoError(t, cfg.Validate())
	})
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown provider", func(t *testing.T) {
		_, err := New(ctx, Config{Provider: "does-not-exist"})
		assert.ErrorIs(t, err, ErrUnknownProvider)
	})

	t.Run("invalid config fails before lookup", func(t *testing.T) {
		_, err := New(ctx, Config{})
		assert.Error(t, err)
	})

	t.Run("openai requires api key", func(t *testing.T) {
		_, err := New(ctx, Config{Provider: "openai"})
		assert.ErrorIs(t, err, ErrMissingAPIKey)
	})

	t.Run("gemini requires api key", func(t *testing.T) {
		_, err := New(ctx, Config{Provider: "gemini"})
		assert.ErrorIs(t, err, ErrMissingAPIKey)
	})

	t.Run("registered factory receives config", func(t *testing.T) {
		fake := &fakeEmbedder{name: "registered"}
		Register("registered-test", func(_ context.Context, cfg Config) (Embedder, error) {
			assert.Equal(t, "model-x", cfg.Model)
			return fake, nil
		})

		emb, err := New(ctx, Config{Provider: "registered-test", Model: "model-x"})
		require.NoError(t, err)
		assert.Same(t, fake, emb.(*fakeEmbedder))
	})
}

func TestProviderError(t *testing.T) {
	err := &ProviderError{Provider: "openai", StatusCode: 429, Message: "rate limited"}
	assert.Equal(t, "embedding: openai: status 429: rate limited", err.Error())
}
