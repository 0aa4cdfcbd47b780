package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const (
	geminiName = "gemini"

	// DefaultGeminiModel is used when the config names no model.
	DefaultGeminiModel = "text-embedding-004"
)

func init() {
	Register(geminiName, func(ctx context.Context, cfg Config) (Embedder, error) {
		return NewGemini(ctx, cfg)
	})
}

// Gemini embeds text through the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini returns a Gemini embedder. The API key is required.
func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingAPIKey, geminiName)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding: %s: create client: %w", geminiName, err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	return &Gemini{client: client, model: model}, nil
}

// Name implements Embedder.
func (g *Gemini) Name() string {
	return geminiName
}

// Embed implements Embedder. All texts go out in one EmbedContent call.
func (g *Gemini) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
	}

	resp, err := g.client.Models.EmbedContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("embedding: %s: %w", geminiName, err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding: %s: got %d embeddings for %d inputs", geminiName, len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("embedding: %s: no embedding for input %d", geminiName, i)
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}
