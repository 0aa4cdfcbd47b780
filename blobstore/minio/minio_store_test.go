package minio

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/hupe1980/semvault/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestIntegrationMinioStore requires a running MinIO instance.
// Skip if not available.
func TestIntegrationMinioStore(t *testing.T) {
	endpoint := "localhost:9000"
	accessKey := "minioadmin"
	secretKey := "minioadmin"
	bucket := "test-semvault"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()

	// Check if MinIO is reachable
	if _, err = client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	// Ensure bucket exists
	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	store := NewStore(client, bucket, "test-prefix/")

	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "test.txt", bytes.NewReader(data), int64(len(data))))

	t.Cleanup(func() {
		_ = store.Delete(ctx, "test.txt")
	})

	blob, err := store.Open(ctx, "test.txt")
	require.NoError(t, err)
	defer blob.Close()

	assert.Equal(t, int64(len(data)), blob.Size())

	got := make([]byte, len(data))
	_, err = io.ReadFull(io.NewSectionReader(blob, 0, blob.Size()), got)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	// Ranged read
	part := make([]byte, 5)
	_, err = blob.ReadAt(part, 6)
	require.NoError(t, err)
	assert.Equal(t, []byte("minio"), part)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "test.txt")

	_, err = store.Open(ctx, "missing.txt")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	require.NoError(t, store.Delete(ctx, "test.txt"))
	_, err = store.Open(ctx, "test.txt")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
