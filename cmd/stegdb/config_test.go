package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigHomeFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.WriteFile(filepath.Join(home, DefaultConfigName), []byte("database: /tmp/cover.png\ncompression: lz4\n"), 0o600))

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/cover.png", cfg.Database)
	assert.Equal(t, "lz4", cfg.Compression)
	assert.Equal(t, "go-json", cfg.Codec)
}

func TestLoadConfigExplicit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stegdb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database: app.db
codec: json
log_level: debug
snapshot_dir: backups
snapshot_io_limit: 4096
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Config{
		Database:        "app.db",
		Compression:     "none",
		Codec:           "json",
		LogLevel:        "debug",
		SnapshotDir:     "backups",
		SnapshotIOLimit: 4096,
	}, cfg)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: [unterminated"), 0o600))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}
