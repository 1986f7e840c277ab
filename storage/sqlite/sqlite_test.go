package sqlite

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hantyrram/stegdb/storage"
)

var _ storage.Adapter = (*Adapter)(nil)
var _ io.Closer = (*Adapter)(nil)

func TestAdapterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.sqlite")

	a := New(path)
	require.NoError(t, a.Init(t.Context()))
	assert.True(t, storage.IsEmpty(a))

	require.NoError(t, a.Write([]byte(`{"collections":{"a":[]}}`)))
	require.NoError(t, a.Commit(t.Context()))
	require.NoError(t, a.Write([]byte(`{"collections":{"b":[]}}`)))
	require.NoError(t, a.Commit(t.Context()))
	require.NoError(t, a.Close())

	reopened := New(path)
	require.NoError(t, reopened.Init(t.Context()))
	defer reopened.Close()

	data, err := reopened.Read()
	require.NoError(t, err)
	assert.Equal(t, `{"collections":{"b":[]}}`, string(data))

	var rows int
	require.NoError(t, reopened.db.QueryRow(`SELECT COUNT(*) FROM stegdb_content`).Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestAdapterInMemory(t *testing.T) {
	a := New(":memory:")
	require.NoError(t, a.Init(t.Context()))
	defer a.Close()

	require.NoError(t, a.Write([]byte("x")))
	require.NoError(t, a.Commit(t.Context()))
	require.NoError(t, a.Init(t.Context()), "re-init reloads from the same connection")

	data, _ := a.Read()
	assert.Equal(t, "x", string(data))
}

func TestAdapterLifecycle(t *testing.T) {
	a := New(":memory:")
	require.NoError(t, a.Write([]byte("x")))
	assert.Error(t, a.Commit(t.Context()), "commit before init")

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
	assert.ErrorIs(t, a.Init(t.Context()), storage.ErrClosed)
	assert.ErrorIs(t, a.Commit(t.Context()), storage.ErrClosed)
}
