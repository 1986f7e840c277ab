package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hantyrram/stegdb/internal/fs"
)

// ErrLocked is returned by File.Init when another process holds the lock.
var ErrLocked = errors.New("storage: database file is locked by another process")

// FileOption configures a File adapter.
type FileOption func(*File)

// WithCreate creates a missing file on Init instead of failing with ErrNotFound.
func WithCreate() FileOption {
	return func(f *File) { f.create = true }
}

// WithFileSystem sets the file system, e.g. a fault-injecting one in tests.
func WithFileSystem(fsys fs.FileSystem) FileOption {
	return func(f *File) { f.fs = fsys }
}

// WithoutLock disables the advisory lock file.
func WithoutLock() FileOption {
	return func(f *File) { f.nolock = true }
}

// File is an Adapter backed by a single file on the local file system.
//
// Commits write a temp file in the same directory, fsync it and rename it
// over the database file. Init takes an exclusive advisory lock on
// "<path>.lock" that is held until Close.
type File struct {
	path   string
	fs     fs.FileSystem
	create bool
	nolock bool

	buf Buffer

	mu     sync.Mutex
	lock   fs.File
	closed bool
}

// NewFile creates a File adapter for path.
func NewFile(path string, opts ...FileOption) *File {
	f := &File{path: path, fs: fs.Default}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Path returns the database file path.
func (f *File) Path() string { return f.path }

// Init implements Adapter.
func (f *File) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}

	info, err := f.fs.Stat(f.path)
	switch {
	case errors.Is(err, os.ErrNotExist) && f.create:
		if err := f.fs.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
			return fmt.Errorf("storage: create %s: %w", f.path, err)
		}
		file, err := f.fs.OpenFile(f.path, os.O_CREATE|os.O_RDWR, 0o644)
		if err != nil {
			return fmt.Errorf("storage: create %s: %w", f.path, err)
		}
		if err := file.Close(); err != nil {
			return fmt.Errorf("storage: create %s: %w", f.path, err)
		}
	case err != nil:
		return fmt.Errorf("storage: open %s: %w", f.path, err)
	case info.IsDir():
		return fmt.Errorf("storage: %s is a directory", f.path)
	}

	if err := f.acquireLock(); err != nil {
		return err
	}

	data, err := f.fs.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("storage: read %s: %w", f.path, err)
	}
	f.buf.Reset(data)
	return nil
}

func (f *File) acquireLock() error {
	if f.nolock || f.lock != nil {
		return nil
	}
	lockPath := f.path + ".lock"
	lock, err := f.fs.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("storage: open lock %s: %w", lockPath, err)
	}
	if err := lockFile(lock); err != nil {
		_ = lock.Close()
		return err
	}
	f.lock = lock
	return nil
}

// Read implements Adapter.
func (f *File) Read() ([]byte, error) {
	return f.buf.Read(), nil
}

// Write implements Adapter.
func (f *File) Write(p []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	f.buf.Write(p)
	return nil
}

// Commit implements Adapter.
func (f *File) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}

	data, ok := f.buf.Pending()
	if !ok {
		return nil
	}
	pattern := "." + filepath.Base(f.path) + "-*.tmp"
	if err := fs.WriteFileAtomic(f.fs, f.path, data, pattern); err != nil {
		return fmt.Errorf("storage: commit %s: %w", f.path, err)
	}
	f.buf.Promote(data)
	return nil
}

// Size implements Adapter.
func (f *File) Size() int64 {
	return f.buf.Size()
}

// Close releases the lock. Pending writes are discarded.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	if f.lock == nil {
		return nil
	}
	err := errors.Join(unlockFile(f.lock), f.lock.Close())
	f.lock = nil
	return err
}
