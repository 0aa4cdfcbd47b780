package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type openAITestItem struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

func TestOpenAIEmbed(t *testing.T) {
	ctx := context.Background()

	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)

		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req openAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultOpenAIModel, req.Model)
		assert.Equal(t, []string{"alpha", "beta"}, req.Input)

		// Reply out of order; the client must reassemble by index.
		json.NewEncoder(w).Encode(map[string]any{
			"data": []openAITestItem{
				{Index: 1, Embedding: []float32{0, 1}},
				{Index: 0, Embedding: []float32{1, 0}},
			},
		})
	}))
	defer srv.Close()

	emb, err := NewOpenAI(Config{Provider: "openai", APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "openai", emb.Name())

	vectors, err := emb.Embed(ctx, []string{"alpha", "beta"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vectors)
	assert.Equal(t, int64(1), requests.Load(), "one batch means one request")

	t.Run("empty input makes no request", func(t *testing.T) {
		vectors, err := emb.Embed(ctx, nil)
		require.NoError(t, err)
		assert.Nil(t, vectors)
		assert.Equal(t, int64(1), requests.Load())
	})
}

func TestOpenAIEmbedErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("rate limited\n"))
	}))
	defer srv.Close()

	emb, err := NewOpenAI(Config{Provider: "openai", APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = emb.Embed(context.Background(), []string{"x"})
	require.Error(t, err)

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusTooManyRequests, perr.StatusCode)
	assert.Equal(t, "rate limited", perr.Message)
	assert.Equal(t, "openai", perr.Provider)
}

func TestOpenAIEmbedCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []openAITestItem{{Index: 0, Embedding: []float32{1}}},
		})
	}))
	defer srv.Close()

	emb, err := NewOpenAI(Config{Provider: "openai", APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = emb.Embed(context.Background(), []string{"a", "b"})
	assert.ErrorContains(t, err, "got 1 embeddings for 2 inputs")
}

func TestOpenAIEmbedBadIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []openAITestItem{
				{Index: 0, Embedding: []float32{1}},
				{Index: 5, Embedding: []float32{2}},
			},
		})
	}))
	defer srv.Close()

	emb, err := NewOpenAI(Config{Provider: "openai", APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = emb.Embed(context.Background(), []string{"a", "b"})
	assert.ErrorContains(t, err, "out of range")
}

func TestNewOpenAIDefaults(t *testing.T) {
	emb, err := NewOpenAI(Config{Provider: "openai", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, defaultOpenAIBaseURL, emb.baseURL)
	assert.Equal(t, DefaultOpenAIModel, emb.model)
	assert.Equal(t, DefaultTimeout, emb.client.Timeout)

	t.Run("trailing slash trimmed", func(t *testing.T) {
		emb, err := NewOpenAI(Config{Provider: "openai", APIKey: "k", BaseURL: "http://localhost:8080/"})
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080", emb.baseURL)
	})
}
