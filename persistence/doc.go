// Package persistence implements the on-disk snapshot format used by the
// vector store: a fixed 64-byte header followed by a checksummed, optionally
// compressed payload, written atomically via temp-file rename.
package persistence
