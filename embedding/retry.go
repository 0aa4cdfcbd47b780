package embedding

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryOptions configures a Retry decorator.
type RetryOptions struct {
	// InitialInterval is the first backoff delay.
	InitialInterval time.Duration
	// MaxElapsedTime caps the total time spent retrying. Zero retries
	// until the context ends.
	MaxElapsedTime time.Duration
}

// DefaultRetryOptions are the recommended retry options.
var DefaultRetryOptions = RetryOptions{
	InitialInterval: 500 * time.Millisecond,
	MaxElapsedTime:  30 * time.Second,
}

// Retry wraps an Embedder with exponential backoff on transient failures:
// rate limits, 5xx responses and network errors. Anything else fails
// immediately.
type Retry struct {
	inner Embedder
	opts  RetryOptions
}

// NewRetry returns a retrying decorator around inner.
func NewRetry(inner Embedder, optFns ...func(o *RetryOptions)) *Retry {
	opts := DefaultRetryOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Retry{inner: inner, opts: opts}
}

// Name implements Embedder.
func (r *Retry) Name() string {
	return r.inner.Name()
}

// Embed implements Embedder.
func (r *Retry) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32

	operation := func() error {
		vs, err := r.inner.Embed(ctx, texts)
		if err != nil {
			if retryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		vectors = vs
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.opts.InitialInterval
	bo.MaxElapsedTime = r.opts.MaxElapsedTime

	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return vectors, nil
}

func retryable(err error) bool {
	var perr *ProviderError
	if errors.As(err, &perr) {
		switch perr.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	var nerr net.Error
	return errors.As(err, &nerr)
}
