// Package sqlite provides a storage.Adapter keeping the database content in
// a single row of a SQLite table. The pure-Go modernc.org/sqlite driver is
// used, so no cgo is required.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/hantyrram/stegdb/storage"
)

const schema = `CREATE TABLE IF NOT EXISTS stegdb_content (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	content    BLOB    NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Adapter is a storage.Adapter backed by a SQLite database file.
type Adapter struct {
	path string

	buf storage.Buffer

	mu     sync.Mutex
	db     *sql.DB
	closed bool
}

// New creates an Adapter for the SQLite database at path. ":memory:" keeps
// the database in memory for the lifetime of the adapter.
func New(path string) *Adapter {
	return &Adapter{path: path}
}

// Init opens the database, creates the table and loads the content row.
func (a *Adapter) Init(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return storage.ErrClosed
	}

	if a.db == nil {
		// _pragma=busy_timeout(5000): wait up to 5s for a lock instead of failing immediately
		dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", a.path)
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return fmt.Errorf("sqlite: open %s: %w", a.path, err)
		}
		// One connection keeps ":memory:" databases alive and serializes writers.
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, schema); err != nil {
			_ = db.Close()
			return fmt.Errorf("sqlite: create table: %w", err)
		}
		a.db = db
	}

	var content []byte
	err := a.db.QueryRowContext(ctx, `SELECT content FROM stegdb_content WHERE id = 1`).Scan(&content)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sqlite: load content: %w", err)
	}
	a.buf.Reset(content)
	return nil
}

// Read implements storage.Adapter.
func (a *Adapter) Read() ([]byte, error) {
	return a.buf.Read(), nil
}

// Write implements storage.Adapter.
func (a *Adapter) Write(p []byte) error {
	a.buf.Write(p)
	return nil
}

// Commit upserts the content row.
func (a *Adapter) Commit(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return storage.ErrClosed
	}
	if a.db == nil {
		return errors.New("sqlite: adapter not initialized")
	}

	data, ok := a.buf.Pending()
	if !ok {
		return nil
	}
	_, err := a.db.ExecContext(ctx, `INSERT INTO stegdb_content (id, content, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`,
		data, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	a.buf.Promote(data)
	return nil
}

// Size implements storage.Adapter.
func (a *Adapter) Size() int64 {
	return a.buf.Size()
}

// Close closes the database.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
