package embedding

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited wraps an Embedder with a client-side request rate limit.
// Each Embed call consumes one token regardless of batch size.
type RateLimited struct {
	inner   Embedder
	limiter *rate.Limiter
}

// NewRateLimited allows rps Embed calls per second with the given burst.
// A burst below 1 is raised to 1.
func NewRateLimited(inner Embedder, rps float64, burst int) *RateLimited {
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Name implements Embedder.
func (r *RateLimited) Name() string {
	return r.inner.Name()
}

// Embed implements Embedder, blocking until the limiter grants a token or
// the context ends.
func (r *RateLimited) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.Embed(ctx, texts)
}
