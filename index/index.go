package index

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidK is returned when a search is requested with k <= 0.
	ErrInvalidK = errors.New("k must be positive")

	// ErrEmptyVector is returned when an empty vector is inserted or queried.
	ErrEmptyVector = errors.New("vector must not be empty")

	// ErrZeroVector is returned when a vector with zero L2 norm cannot be
	// normalized for storage or search.
	ErrZeroVector = errors.New("cannot normalize zero vector")
)

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
type ErrDimensionMismatch struct {
	Expected int // Expected dimensions
	Actual   int // Actual dimensions
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrNotFound indicates that no vector exists at the given offset.
type ErrNotFound struct {
	ID uint32
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("no vector at offset %d", e.ID)
}

// SearchResult represents a single scored hit.
type SearchResult struct {
	// ID is the insertion offset of the matching vector.
	ID uint32

	// Score is the inner product of the normalized query with the stored
	// unit vector, i.e. their cosine similarity. Higher is better.
	Score float32
}

// Filter restricts search candidates. It returns true for offsets that may
// appear in the result set.
type Filter func(id uint32) bool
