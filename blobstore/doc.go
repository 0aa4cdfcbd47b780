// Package blobstore provides storage backends for replicating a semvault
// data directory to and from remote object storage.
//
// BlobStore is the interface for reading and writing named blobs.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: a directory on the local filesystem
//   - MemoryStore: in-memory, for testing
//   - s3.Store: Amazon S3 with ranged reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible object storage
//
// # Syncing
//
// Push and Pull replicate a data directory against any BlobStore:
//
//	store := s3blobstore.NewStore(client, "backups", "notes/")
//
//	n, err := blobstore.Push(ctx, store, "./data")   // upload
//	n, err = blobstore.Pull(ctx, store, "./restore") // download
//
// Hidden files such as the store lock are never transferred.
//
// # Custom Implementations
//
// Implement the BlobStore interface to support custom storage backends:
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)       // Open for reading
//	    Put(ctx, name, r, size) error       // Replace atomically
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Open must return ErrNotFound for missing blobs.
package blobstore
