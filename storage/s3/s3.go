package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hantyrram/stegdb/storage"
)

// Client is the subset of the S3 API the adapter uses.
type Client interface {
	manager.UploadAPIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithCommitLog enables versioned commits coordinated through a DynamoDB table.
func WithCommitLog(client DDBClient, table string) Option {
	return func(a *Adapter) {
		a.log = &commitLog{client: client, table: table}
	}
}

// WithPartSize sets the multipart upload part size (default 8 MiB).
func WithPartSize(size int64) Option {
	return func(a *Adapter) { a.partSize = size }
}

// Adapter is a storage.Adapter backed by one S3 object.
type Adapter struct {
	client   Client
	uploader *manager.Uploader
	bucket   string
	key      string
	partSize int64
	log      *commitLog

	buf storage.Buffer

	mu      sync.Mutex
	version uint64 // last committed version seen, with a commit log
}

// New creates an Adapter for s3://bucket/key.
func New(client Client, bucket, key string, opts ...Option) *Adapter {
	a := &Adapter{
		client:   client,
		bucket:   bucket,
		key:      key,
		partSize: 8 * 1024 * 1024,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.log != nil {
		a.log.baseURI = "s3://" + bucket + "/" + key
	}
	a.uploader = manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = a.partSize
	})
	return a
}

// NewFromConfig loads the default AWS configuration and creates an Adapter.
// A non-empty commitTable enables the DynamoDB commit log.
func NewFromConfig(ctx context.Context, bucket, key, commitTable string, opts ...Option) (*Adapter, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}
	if commitTable != "" {
		opts = append([]Option{WithCommitLog(dynamodb.NewFromConfig(cfg), commitTable)}, opts...)
	}
	return New(s3.NewFromConfig(cfg), bucket, key, opts...), nil
}

// Init fetches the current content. A missing object is empty content.
func (a *Adapter) Init(ctx context.Context) error {
	var (
		head commitEntry
		base []byte
	)

	g, gctx := errgroup.WithContext(ctx)
	if a.log != nil {
		g.Go(func() error {
			var err error
			head, err = a.log.latest(gctx)
			return err
		})
	}
	g.Go(func() error {
		var err error
		base, err = a.get(gctx, a.key)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	content := base
	if head.version > 0 {
		var err error
		if content, err = a.get(ctx, head.objectKey); err != nil {
			return err
		}
	}

	a.mu.Lock()
	a.version = head.version
	a.mu.Unlock()
	a.buf.Reset(content)
	return nil
}

func (a *Adapter) get(ctx context.Context, key string) ([]byte, error) {
	resp, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, nil
		}
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return nil, nil
		}
		return nil, fmt.Errorf("s3: get s3://%s/%s: %w", a.bucket, key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("s3: read s3://%s/%s: %w", a.bucket, key, err)
	}
	return data, nil
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

// Commit uploads the pending content. With a commit log, a concurrent
// commit by another writer fails with ErrConcurrentModification.
func (a *Adapter) Commit(ctx context.Context) error {
	data, ok := a.buf.Pending()
	if !ok {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	key := a.key
	next := a.version + 1
	if a.log != nil {
		key = versionKey(a.key, next)
	}

	if _, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}); err != nil {
		return fmt.Errorf("s3: upload s3://%s/%s: %w", a.bucket, key, err)
	}

	if a.log != nil {
		if err := a.log.commit(ctx, next, key); err != nil {
			return err
		}
		a.version = next
	}
	a.buf.Promote(data)
	return nil
}

// Size implements storage.Adapter.
func (a *Adapter) Size() int64 {
	return a.buf.Size()
}

// Version returns the last committed version known to this adapter (0
// without a commit log).
func (a *Adapter) Version() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.version
}

// versionKey is unique per attempt so a losing writer never overwrites the
// object of the winning one.
func versionKey(key string, version uint64) string {
	return fmt.Sprintf("%s/v%d-%s", key, version, uuid.NewString())
}
