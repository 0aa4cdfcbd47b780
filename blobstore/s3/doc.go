// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("notes/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	n, err := blobstore.Push(ctx, store, "./data")
//
// An existing *s3.Client can be injected via NewStore, which also makes
// the store testable against a mock Client.
//
// # Features
//
//   - Range reads for efficient partial fetches
//   - Multipart uploads for large blobs
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
