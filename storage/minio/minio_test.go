package minio

import (
	"context"
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hantyrram/stegdb/storage"
)

var _ storage.Adapter = (*Adapter)(nil)

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NotFound"}))
	assert.False(t, isNotFound(minio.ErrorResponse{Code: "AccessDenied"}))
	assert.False(t, isNotFound(errors.New("connection refused")))
}

// TestAdapter_Integration requires a running MinIO instance.
// Skip if not available.
func TestAdapter_Integration(t *testing.T) {
	const bucket = "test-stegdb"

	a, err := NewFromEndpoint("localhost:9000", "minioadmin", "minioadmin", false, bucket, "integration.db")
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()
	if _, err := a.client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	exists, err := a.client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, a.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}
	_ = a.client.RemoveObject(ctx, bucket, "integration.db", minio.RemoveObjectOptions{})

	require.NoError(t, a.Init(ctx))
	assert.True(t, storage.IsEmpty(a))

	require.NoError(t, a.Write([]byte(`{"collections":{}}`)))
	require.NoError(t, a.Commit(ctx))

	reopened := New(a.client, bucket, "integration.db")
	require.NoError(t, reopened.Init(ctx))
	data, err := reopened.Read()
	require.NoError(t, err)
	assert.Equal(t, `{"collections":{}}`, string(data))
}
