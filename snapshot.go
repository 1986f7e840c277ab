package stegdb

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/hantyrram/stegdb/internal/fs"
	"github.com/hantyrram/stegdb/internal/resource"
	"github.com/hantyrram/stegdb/persistence"
)

// WriteSnapshot writes the committed adapter content to w as a base64
// snapshot frame with a CRC32 trailer.
func (db *DB) WriteSnapshot(ctx context.Context, w io.Writer) error {
	if err := db.rc.AcquireJob(ctx); err != nil {
		return err
	}
	defer db.rc.ReleaseJob()

	return db.writeSnapshot(ctx, w)
}

func (db *DB) writeSnapshot(ctx context.Context, w io.Writer) error {
	db.mu.RLock()
	if err := db.checkReady(); err != nil {
		db.mu.RUnlock()
		return err
	}
	data, err := db.adapter.Read()
	db.mu.RUnlock()
	if err != nil {
		return err
	}

	return persistence.WriteSnapshot(resource.NewRateLimitedWriter(ctx, w, db.rc), data)
}

// CreateSnapshot writes a backup of the committed content to
// <snapshot dir>/snap<unix millis>.bck and returns its path.
func (db *DB) CreateSnapshot(ctx context.Context) (path string, err error) {
	defer func() {
		db.opts.logger.LogSnapshot(ctx, path, err)
	}()

	if err := db.rc.AcquireJob(ctx); err != nil {
		return "", err
	}
	defer db.rc.ReleaseJob()

	var buf bytes.Buffer
	if err := db.writeSnapshot(ctx, &buf); err != nil {
		return "", err
	}

	if err := fs.Default.MkdirAll(db.opts.snapshotDir, 0o755); err != nil {
		return "", fmt.Errorf("stegdb: create snapshot dir: %w", err)
	}
	path = filepath.Join(db.opts.snapshotDir, fmt.Sprintf("snap%d.bck", time.Now().UnixMilli()))
	if err := fs.WriteFileAtomic(fs.Default, path, buf.Bytes(), ".snap-*.tmp"); err != nil {
		return "", fmt.Errorf("stegdb: write snapshot: %w", err)
	}
	return path, nil
}

// LoadFromBackup restores the database from a file written by
// CreateSnapshot. The backup is verified and decoded before it is committed
// through the adapter, so a bad backup leaves the database untouched.
func (db *DB) LoadFromBackup(ctx context.Context, path string) (err error) {
	defer func() {
		if err != nil {
			db.opts.logger.LogSnapshot(ctx, path, err)
		} else {
			db.opts.logger.InfoContext(ctx, "backup restored", "filename", path)
		}
	}()

	if err := db.rc.AcquireJob(ctx); err != nil {
		return err
	}
	defer db.rc.ReleaseJob()

	f, err := fs.Default.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("stegdb: open backup: %w", err)
	}
	defer f.Close()

	data, err := persistence.ReadSnapshot(resource.NewRateLimitedReader(ctx, f, db.rc))
	if err != nil {
		return driverError(ErrCorruptData, path, err)
	}

	tree, err := db.decode(data)
	if err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.checkReady(); err != nil {
		return err
	}
	if err := db.adapter.Write(data); err != nil {
		return driverError(ErrCommitFailed, "", err)
	}
	if err := db.adapter.Commit(ctx); err != nil {
		return driverError(ErrCommitFailed, "", err)
	}

	db.tree = tree
	db.syncGenerators()
	return nil
}
