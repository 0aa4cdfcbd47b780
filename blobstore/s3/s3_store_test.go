package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/semvault/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegrationS3Store(t *testing.T) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		t.Skip("Skipping S3 integration test: S3_BUCKET not set")
	}

	ctx := context.Background()
	cfg, err := config.LoadDefaultConfig(ctx)
	require.NoError(t, err)

	client := s3.NewFromConfig(cfg)

	// Unique prefix so concurrent test runs don't collide
	prefix := fmt.Sprintf("semvault-test-%d/", time.Now().UnixNano())
	store := NewStore(client, bucket, prefix)

	data := []byte("hello s3 world")
	require.NoError(t, store.Put(ctx, "greeting.txt", bytes.NewReader(data), int64(len(data))))

	t.Cleanup(func() {
		_ = store.Delete(ctx, "greeting.txt")
	})

	blob, err := store.Open(ctx, "greeting.txt")
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
	assert.Equal(t, []byte("s3 wo"), part)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"greeting.txt"}, names)

	_, err = store.Open(ctx, "missing.txt")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	require.NoError(t, store.Delete(ctx, "greeting.txt"))
	_, err = store.Open(ctx, "greeting.txt")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
