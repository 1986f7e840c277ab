package stegdb_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hantyrram/stegdb"
	"github.com/hantyrram/stegdb/persistence"
	"github.com/hantyrram/stegdb/storage"
)

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "backups")
	db, mem := newTestDB(t, "", stegdb.WithSnapshotDir(dir))
	users := seedUsers(t, db)
	want, err := db.SelectAll()
	require.NoError(t, err)

	path, err := db.CreateSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.Regexp(t, regexp.MustCompile(`^snap\d+\.bck$`), filepath.Base(path))

	require.NoError(t, users.Drop(ctx))
	_, err = db.CreateCollection(ctx, "scratch")
	require.NoError(t, err)

	commits := mem.Commits()
	require.NoError(t, db.LoadFromBackup(ctx, path))
	assert.Equal(t, commits+1, mem.Commits())

	got, err := db.SelectAll()
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(want, got))

	res, err := db.InsertOne(ctx, "users", stegdb.Document{"name": "eve"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.InsertedID)
}

func TestWriteSnapshotIsBase64Frame(t *testing.T) {
	ctx := context.Background()
	db, mem := newTestDB(t, "")
	seedUsers(t, db)

	var buf bytes.Buffer
	require.NoError(t, db.WriteSnapshot(ctx, &buf))

	raw, err := base64.StdEncoding.DecodeString(buf.String())
	require.NoError(t, err)
	assert.Equal(t, "SDBK", string(raw[:4]))

	payload, err := persistence.ReadSnapshot(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	content, err := mem.Read()
	require.NoError(t, err)
	assert.Equal(t, content, payload)
}

func TestLoadFromBackupDetectsCorruption(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	db, mem := newTestDB(t, "", stegdb.WithSnapshotDir(dir))
	seedUsers(t, db)

	path, err := db.CreateSnapshot(ctx)
	require.NoError(t, err)

	encoded, err := os.ReadFile(path)
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(string(encoded))
	require.NoError(t, err)
	raw[12] ^= 0xFF
	require.NoError(t, os.WriteFile(path, []byte(base64.StdEncoding.EncodeToString(raw)), 0o600))

	commits := mem.Commits()
	err = db.LoadFromBackup(ctx, path)
	require.ErrorIs(t, err, stegdb.ErrCorruptData)
	assert.True(t, persistence.IsChecksumMismatch(err))
	assert.Equal(t, commits, mem.Commits())
}

func TestLoadFromBackupLegacy(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestDB(t, "")

	path := filepath.Join(t.TempDir(), "legacy.bck")
	legacy := base64.StdEncoding.EncodeToString([]byte(`{"users":[{"_id":3,"name":"old"}]}`))
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o600))

	require.NoError(t, db.LoadFromBackup(ctx, path))
	doc, err := db.FindOne("users", nil)
	require.NoError(t, err)
	assert.Equal(t, "old", doc["name"])
}

func TestLoadFromBackupRejectsBadContent(t *testing.T) {
	ctx := context.Background()
	db, mem := newTestDB(t, "")
	seedUsers(t, db)

	path := filepath.Join(t.TempDir(), "bad.bck")
	var buf bytes.Buffer
	require.NoError(t, persistence.WriteSnapshot(&buf, []byte("[1,2,3]")))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	commits := mem.Commits()
	assert.ErrorIs(t, db.LoadFromBackup(ctx, path), stegdb.ErrCorruptData)
	assert.Equal(t, commits, mem.Commits())

	err := db.LoadFromBackup(ctx, filepath.Join(t.TempDir(), "missing.bck"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFromBackupCommitFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	db, mem := newTestDB(t, "", stegdb.WithSnapshotDir(dir))
	seedUsers(t, db)

	path, err := db.CreateSnapshot(ctx)
	require.NoError(t, err)
	require.NoError(t, db.DropDB(ctx))

	mem.SetCommitError(assert.AnError)
	err = db.LoadFromBackup(ctx, path)
	require.ErrorIs(t, err, stegdb.ErrCommitFailed)

	names, err := db.CollectionNames()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestSnapshotWithIOLimit(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestDB(t, "", stegdb.WithSnapshotDir(t.TempDir()), stegdb.WithSnapshotIOLimit(1<<20))
	seedUsers(t, db)

	path, err := db.CreateSnapshot(ctx)
	require.NoError(t, err)
	require.NoError(t, db.LoadFromBackup(ctx, path))
}

func TestSnapshotCancelled(t *testing.T) {
	db, _ := newTestDB(t, "", stegdb.WithSnapshotDir(t.TempDir()), stegdb.WithSnapshotIOLimit(16))
	seedUsers(t, db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := db.CreateSnapshot(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSnapshotNotInitialized(t *testing.T) {
	db := stegdb.New(storage.NewMemory(nil))
	var buf bytes.Buffer
	assert.ErrorIs(t, db.WriteSnapshot(context.Background(), &buf), stegdb.ErrNotInitialized)
}
