package embedding

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	gojson "github.com/goccy/go-json"
)

const (
	openAIName           = "openai"
	defaultOpenAIBaseURL = "https://api.openai.com/v1"

	// DefaultOpenAIModel is used when the config names no model.
	DefaultOpenAIModel = "text-embedding-3-small"
)

func init() {
	Register(openAIName, func(_ context.Context, cfg Config) (Embedder, error) {
		return NewOpenAI(cfg)
	})
}

// OpenAI embeds text through the OpenAI embeddings endpoint.
type OpenAI struct {
	client  *http.Client
	baseURL string
	model   string
	apiKey  string
}

// NewOpenAI returns an OpenAI embedder. The API key is required.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingAPIKey, openAIName)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &OpenAI{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		model:   model,
		apiKey:  cfg.APIKey,
	}, nil
}

// Name implements Embedder.
func (o *OpenAI) Name() string {
	return openAIName
}

type openAIRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type openAIResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Embed implements Embedder. All texts go out in one request; the response
// is reassembled by index so the result order matches the input order.
func (o *OpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := gojson.Marshal(openAIRequest{Input: texts, Model: o.model})
	if err != nil {
		return nil, fmt.Errorf("embedding: %s: encode request: %w", openAIName, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embedding: %s: build request: %w", openAIName, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding: %s: %w", openAIName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &ProviderError{
			Provider:   openAIName,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(data)),
		}
	}

	var out openAIResponse
	if err := gojson.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("embedding: %s: decode response: %w", openAIName, err)
	}
	if len(out.Data) != len(texts) {
		return nil, fmt.Errorf("embedding: %s: got %d embeddings for %d inputs", openAIName, len(out.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range out.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding: %s: embedding index %d out of range", openAIName, d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("embedding: %s: no embedding for input %d", openAIName, i)
		}
	}
	return vectors, nil
}
