//go:build unix

package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")

	first := NewFile(path, WithCreate())
	require.NoError(t, first.Init(t.Context()))

	second := NewFile(path)
	assert.ErrorIs(t, second.Init(t.Context()), ErrLocked)

	require.NoError(t, first.Close())
	require.NoError(t, second.Init(t.Context()))
	require.NoError(t, second.Close())
}

func TestFileReinitKeepsLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")
	f := NewFile(path, WithCreate())
	require.NoError(t, f.Init(t.Context()))
	require.NoError(t, f.Init(t.Context()))
	require.NoError(t, f.Close())
}
