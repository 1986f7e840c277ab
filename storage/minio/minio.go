package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hantyrram/stegdb/storage"
)

// Adapter is a storage.Adapter backed by one MinIO object.
type Adapter struct {
	client *minio.Client
	bucket string
	key    string

	buf storage.Buffer
}

// New creates an Adapter for bucket/key.
func New(client *minio.Client, bucket, key string) *Adapter {
	return &Adapter{client: client, bucket: bucket, key: key}
}

// NewFromEndpoint creates a client with static credentials and an Adapter.
func NewFromEndpoint(endpoint, accessKey, secretKey string, secure bool, bucket, key string) (*Adapter, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: %w", err)
	}
	return New(client, bucket, key), nil
}

// Init fetches the current content. A missing object is empty content.
func (a *Adapter) Init(ctx context.Context) error {
	obj, err := a.client.GetObject(ctx, a.bucket, a.key, minio.GetObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			a.buf.Reset(nil)
			return nil
		}
		return fmt.Errorf("minio: get %s/%s: %w", a.bucket, a.key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNotFound(err) {
			a.buf.Reset(nil)
			return nil
		}
		return fmt.Errorf("minio: read %s/%s: %w", a.bucket, a.key, err)
	}
	a.buf.Reset(data)
	return nil
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

// Read implements storage.Adapter.
func (a *Adapter) Read() ([]byte, error) {
	return a.buf.Read(), nil
}

// Write implements storage.Adapter.
func (a *Adapter) Write(p []byte) error {
	a.buf.Write(p)
	return nil
}

// Commit uploads the pending content.
func (a *Adapter) Commit(ctx context.Context) error {
	data, ok := a.buf.Pending()
	if !ok {
		return nil
	}
	_, err := a.client.PutObject(ctx, a.bucket, a.key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("minio: put %s/%s: %w", a.bucket, a.key, err)
	}
	a.buf.Promote(data)
	return nil
}

// Size implements storage.Adapter.
func (a *Adapter) Size() int64 {
	return a.buf.Size()
}
