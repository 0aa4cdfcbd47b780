package vectorstore

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed indicates an operation on a closed store.
	ErrClosed = errors.New("vectorstore: store is closed")

	// ErrLocked indicates another process holds the store directory.
	ErrLocked = errors.New("vectorstore: store is locked by another process")

	// ErrCorrupt indicates the vector index and metadata store disagree,
	// or a snapshot failed verification. A corrupt store cannot be opened.
	ErrCorrupt = errors.New("vectorstore: corrupt store")
)

// BatchMismatchError reports an AddVectors call whose vector and record
// slices differ in length.
type BatchMismatchError struct {
	Vectors int
	Records int
}

func (e *BatchMismatchError) Error() string {
	return fmt.Sprintf("vectorstore: batch mismatch: %d vectors, %d records", e.Vectors, e.Records)
}
