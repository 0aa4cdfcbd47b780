package semvault

import (
	"errors"
	"fmt"

	"github.com/hupe1980/semvault/index"
	"github.com/hupe1980/semvault/vectorstore"
)

var (
	// ErrNotFound is returned when an item is not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrClosed is returned for operations on a closed SemVault.
	ErrClosed = errors.New("semvault: closed")

	// ErrNoEmbedder is returned when an operation needs the embedding
	// provider and none was configured.
	ErrNoEmbedder = errors.New("semvault: no embedding provider configured")

	// ErrCorrupt is returned when the vector index and its metadata store
	// disagree. A corrupt store must be restored from a backup; it is never
	// repaired in place.
	ErrCorrupt = errors.New("semvault: corrupt store")

	// ErrLocked is returned when another process holds the store directory.
	ErrLocked = errors.New("semvault: store directory is locked")
)

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Already speaking the root vocabulary.
	if errors.Is(err, ErrClosed) || errors.Is(err, ErrNoEmbedder) ||
		errors.Is(err, ErrCorrupt) || errors.Is(err, ErrLocked) {
		return err
	}

	// Lifecycle and integrity unification.
	if errors.Is(err, vectorstore.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}
	if errors.Is(err, vectorstore.ErrLocked) {
		return fmt.Errorf("%w: %w", ErrLocked, err)
	}
	if errors.Is(err, vectorstore.ErrCorrupt) {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	// Dimension and argument normalization.
	var dm *index.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}
	if errors.Is(err, index.ErrInvalidK) {
		return fmt.Errorf("%w: %w", ErrInvalidK, err)
	}

	return err
}
