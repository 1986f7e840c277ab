package stegdb

import (
	"context"
	"errors"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hantyrram/stegdb/storage"
	"github.com/hantyrram/stegdb/storage/steg"
)

// Connection validates a data-source path and opens a DB on it.
type Connection struct {
	path string
	opts []Option
	o    options
}

// NewConnection returns a Connection for path. An empty path fails with
// ErrInvalidPath.
func NewConnection(path string, opts ...Option) (*Connection, error) {
	if strings.TrimSpace(path) == "" {
		return nil, connectionError(ErrInvalidPath, path, nil)
	}
	return &Connection{path: path, opts: opts, o: applyOptions(opts)}, nil
}

// Path returns the data-source path.
func (c *Connection) Path() string { return c.path }

// Connect checks that the path is readable and writable, builds the storage
// adapter and returns an initialized DB. Initialization errors are returned
// unchanged.
func (c *Connection) Connect(ctx context.Context) (*DB, error) {
	if err := c.check(); err != nil {
		return nil, err
	}

	adapter, err := c.adapter()
	if err != nil {
		return nil, err
	}

	db := New(adapter, c.opts...)
	if err := db.Initialize(ctx); err != nil {
		if closer, ok := adapter.(io.Closer); ok {
			_ = closer.Close()
		}
		return nil, err
	}
	return db, nil
}

func (c *Connection) check() error {
	if err := access(c.path); err != nil {
		switch {
		case errors.Is(err, iofs.ErrNotExist):
			return connectionError(ErrImageNotFound, c.path, err)
		case errors.Is(err, iofs.ErrPermission):
			return connectionError(ErrPermissionDenied, c.path, err)
		default:
			return connectionError(ErrInvalidPath, c.path, err)
		}
	}

	fi, err := os.Stat(c.path)
	if err != nil {
		return connectionError(ErrInvalidPath, c.path, err)
	}
	if fi.IsDir() {
		return connectionError(ErrInvalidPath, c.path, errors.New("is a directory"))
	}
	return nil
}

func (c *Connection) adapter() (storage.Adapter, error) {
	factory := c.o.adapterFactory
	if factory == nil {
		factory = DefaultAdapter
	}
	a, err := factory(c.path)
	if err != nil {
		return nil, err
	}
	if c.o.compression != storage.CompressionNone {
		a = storage.NewCompressed(a, c.o.compression)
	}
	return a, nil
}

// DefaultAdapter picks the steganography adapter for .png and .bmp files and
// the plain file adapter for everything else.
func DefaultAdapter(path string) (storage.Adapter, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".bmp":
		return steg.New(path), nil
	default:
		return storage.NewFile(path), nil
	}
}

// Connect is shorthand for NewConnection followed by Connection.Connect.
func Connect(ctx context.Context, path string, opts ...Option) (*DB, error) {
	conn, err := NewConnection(path, opts...)
	if err != nil {
		return nil, err
	}
	return conn.Connect(ctx)
}
