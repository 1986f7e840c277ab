package storage

import (
	"context"
	"sync"
)

// Memory is an in-memory Adapter for tests and ephemeral databases.
type Memory struct {
	buf Buffer

	mu        sync.Mutex
	commitErr error
	commits   int
	closed    bool
}

// NewMemory creates a Memory adapter whose committed content is initial.
func NewMemory(initial []byte) *Memory {
	m := &Memory{}
	m.buf.Reset(initial)
	return m
}

// Init implements Adapter.
func (m *Memory) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	return nil
}

// Read implements Adapter.
func (m *Memory) Read() ([]byte, error) {
	return m.buf.Read(), nil
}

// Write implements Adapter.
func (m *Memory) Write(p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.buf.Write(p)
	return nil
}

// Commit implements Adapter. It fails with the error set by SetCommitError.
func (m *Memory) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.commitErr != nil {
		return m.commitErr
	}
	if data, ok := m.buf.Pending(); ok {
		m.buf.Promote(data)
	}
	m.commits++
	return nil
}

// Size implements Adapter.
func (m *Memory) Size() int64 {
	return m.buf.Size()
}

// SetCommitError makes every following Commit fail with err (nil clears it).
func (m *Memory) SetCommitError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commitErr = err
}

// Commits returns the number of successful commits.
func (m *Memory) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits
}

// Close implements io.Closer.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
