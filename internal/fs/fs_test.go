package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS(t *testing.T) {
	tmp := t.TempDir()
	lfs := LocalFS{}

	dir := filepath.Join(tmp, "subdir")
	assert.NoError(t, lfs.MkdirAll(dir, 0o755))

	fpath := filepath.Join(dir, "test.db")
	f, err := lfs.OpenFile(fpath, os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)

	_, err = f.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.NoError(t, f.Sync())

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())
	assert.NoError(t, f.Close())

	data, err := lfs.ReadFile(fpath)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	newPath := filepath.Join(dir, "renamed.db")
	assert.NoError(t, lfs.Rename(fpath, newPath))
	assert.NoError(t, lfs.Remove(newPath))
	_, err = lfs.Stat(newPath)
	assert.True(t, os.IsNotExist(err))
}

func TestWriteFileAtomic(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "data.db")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	require.NoError(t, WriteFileAtomic(Default, path, []byte("new content"), ".data-*.tmp"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new content", string(data))

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be renamed away")
}

func TestWriteFileAtomicFailureKeepsOriginal(t *testing.T) {
	tests := []struct {
		name  string
		fault Fault
	}{
		{name: "write", fault: Fault{FailAfterBytes: 2}},
		{name: "sync", fault: Fault{FailAfterBytes: -1, FailOnSync: true}},
		{name: "close", fault: Fault{FailAfterBytes: -1, FailOnClose: true}},
		{name: "rename", fault: Fault{FailAfterBytes: -1, FailOnRename: true}},
		{name: "open", fault: Fault{FailOnOpen: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmp := t.TempDir()
			path := filepath.Join(tmp, "data.db")
			require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

			ffs := NewFaultyFS(nil)
			ffs.AddRule(".tmp", tt.fault)

			err := WriteFileAtomic(ffs, path, []byte("new content"), ".data-*.tmp")
			assert.ErrorIs(t, err, ErrInjected)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "old", string(data))

			entries, err := os.ReadDir(tmp)
			require.NoError(t, err)
			assert.Len(t, entries, 1, "temp file must be cleaned up")
		})
	}
}

func TestFaultyFSWriteLimit(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(LocalFS{})
	ffs.AddRule("faulty", Fault{FailAfterBytes: 5})

	f, err := ffs.OpenFile(filepath.Join(tmp, "faulty.txt"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	defer f.Close()

	n, err := f.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = f.Write([]byte("!"))
	assert.ErrorIs(t, err, ErrInjected)
	assert.Equal(t, 0, n)
	assert.Equal(t, int64(5), ffs.Written())
}

func TestFaultyFSCustomErrorAndReset(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "x.db")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	boom := os.ErrDeadlineExceeded
	ffs := NewFaultyFS(nil)
	ffs.AddRule("x.db", Fault{FailOnOpen: true, Err: boom})

	_, err := ffs.ReadFile(path)
	assert.ErrorIs(t, err, boom)

	ffs.Reset()
	data, err := ffs.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
	assert.NoError(t, ffs.MkdirAll(filepath.Join(tmp, "sub"), 0o755))
	_, err = ffs.Stat(path)
	assert.NoError(t, err)
	assert.NoError(t, ffs.Remove(path))
}
