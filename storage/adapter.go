package storage

import (
	"context"
	"errors"
	"os"
	"slices"
	"sync"
)

// ErrNotFound is returned when the storage source does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// ErrClosed is returned by an adapter after Close.
var ErrClosed = errors.New("storage: adapter closed")

// Adapter persists a single opaque byte blob.
type Adapter interface {
	// Init prepares the adapter and loads the current content.
	Init(ctx context.Context) error
	// Read returns the committed content. An uninitialized source yields
	// zero bytes.
	Read() ([]byte, error)
	// Write replaces the pending content. Nothing is durable before Commit.
	Write(p []byte) error
	// Commit flushes the pending content.
	Commit(ctx context.Context) error
	// Size returns the size of the committed content in bytes.
	Size() int64
}

// IsEmpty reports whether the adapter holds no committed content.
func IsEmpty(a Adapter) bool {
	return a.Size() == 0
}

// Buffer tracks committed and pending content for adapter implementations.
// It is safe for concurrent use.
type Buffer struct {
	mu        sync.RWMutex
	committed []byte
	pending   []byte
	dirty     bool
}

// Reset replaces the committed content and drops anything pending.
func (b *Buffer) Reset(committed []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.committed = slices.Clone(committed)
	b.pending = nil
	b.dirty = false
}

// Read returns a copy of the committed content.
func (b *Buffer) Read() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.committed == nil {
		return []byte{}
	}
	return slices.Clone(b.committed)
}

// Write stores a copy of p as pending content.
func (b *Buffer) Write(p []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = slices.Clone(p)
	b.dirty = true
}

// Pending returns the pending content and whether there is any.
func (b *Buffer) Pending() ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.pending, b.dirty
}

// Promote marks data as committed if it is still the pending content.
func (b *Buffer) Promote(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.committed = data
	if b.dirty && len(b.pending) == len(data) && (len(data) == 0 || &b.pending[0] == &data[0]) {
		b.pending = nil
		b.dirty = false
	}
}

// Size returns the committed size.
func (b *Buffer) Size() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return int64(len(b.committed))
}
