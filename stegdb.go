package stegdb

import (
	"context"
	"errors"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/hantyrram/stegdb/document"
	"github.com/hantyrram/stegdb/internal/resource"
	"github.com/hantyrram/stegdb/persistence"
	"github.com/hantyrram/stegdb/query"
	"github.com/hantyrram/stegdb/storage"
	"github.com/hantyrram/stegdb/update"
)

type (
	// Document is a field-name to value mapping. The _id field is assigned
	// by the store.
	Document = document.Document
	// Tree is the whole database: every collection with its documents.
	Tree = document.Tree
	// Filter selects documents; see package query.
	Filter = query.Filter
	// Projection shapes returned documents; see package query.
	Projection = query.Projection
	// Update is an update document using $set and $unset.
	Update = update.Spec
)

// DB is an embedded document database persisted through a storage adapter.
//
// The whole database lives in memory. Every mutating call serializes the
// full tree and commits it through the adapter before it returns.
// DB is safe for concurrent use.
type DB struct {
	adapter storage.Adapter
	opts    options
	rc      *resource.Controller

	mu          sync.RWMutex
	tree        document.Tree
	generators  map[string]*document.IDGenerator
	initialized bool
	closed      bool
}

// New creates a DB on top of adapter. Initialize must be called before use.
func New(adapter storage.Adapter, opts ...Option) *DB {
	o := applyOptions(opts)
	return &DB{
		adapter: adapter,
		opts:    o,
		rc: resource.NewController(resource.Config{
			MaxJobs:            1,
			IOLimitBytesPerSec: o.snapshotIOLimit,
		}),
		tree:       document.NewTree(),
		generators: make(map[string]*document.IDGenerator),
	}
}

// Adapter returns the storage adapter backing db.
func (db *DB) Adapter() storage.Adapter {
	return db.adapter
}

// Initialize loads the database from the storage adapter.
//
// A missing data source fails with ErrInvalidStoragePath. Other adapter
// errors are returned unchanged. Calling Initialize again discards the
// in-memory state and reloads it.
func (db *DB) Initialize(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return ErrClosed
	}

	err := db.initLocked(ctx)
	db.opts.logger.LogLoad(ctx, len(db.tree.Collections), err)
	return err
}

func (db *DB) initLocked(ctx context.Context) error {
	if err := db.adapter.Init(ctx); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return driverError(ErrInvalidStoragePath, "", err)
		}
		return err
	}

	tree, err := db.load()
	if err != nil {
		return err
	}

	db.tree = tree
	db.generators = make(map[string]*document.IDGenerator, len(tree.Collections))
	for name, docs := range tree.Collections {
		db.generators[name] = document.NewIDGenerator(docs)
	}
	db.initialized = true
	return nil
}

// load decodes the committed adapter content.
func (db *DB) load() (document.Tree, error) {
	data, err := db.adapter.Read()
	if err != nil {
		return document.Tree{}, err
	}
	return db.decode(data)
}

// decode parses adapter content. Empty content is an empty database.
func (db *DB) decode(data []byte) (document.Tree, error) {
	if len(data) == 0 {
		return document.NewTree(), nil
	}
	tree, err := persistence.Decode(db.opts.codec, data)
	if err != nil {
		return document.Tree{}, driverError(ErrCorruptData, "", err)
	}
	return tree, nil
}

func (db *DB) checkReady() error {
	if db.closed {
		return ErrClosed
	}
	if !db.initialized {
		return ErrNotInitialized
	}
	return nil
}

// Commit serializes the whole tree and flushes it through the adapter.
func (db *DB) Commit(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.checkReady(); err != nil {
		return err
	}
	return db.commitLocked(ctx)
}

// commitLocked persists the tree. On failure the tree is rolled back to the
// last committed content and ErrCommitFailed is returned.
func (db *DB) commitLocked(ctx context.Context) error {
	start := time.Now()

	data, err := persistence.Encode(db.opts.codec, db.tree)
	if err == nil {
		err = db.adapter.Write(data)
	}
	if err == nil {
		err = db.adapter.Commit(ctx)
	}

	db.opts.metricsCollector.RecordCommit(len(data), time.Since(start), err)
	db.opts.logger.LogCommit(ctx, len(data), err)

	if err != nil {
		db.rollbackLocked(ctx)
		return driverError(ErrCommitFailed, "", err)
	}
	return nil
}

// rollbackLocked restores the tree from the committed adapter content.
// Generators of surviving collections keep their position.
func (db *DB) rollbackLocked(ctx context.Context) {
	tree, err := db.load()
	if err != nil {
		db.opts.logger.ErrorContext(ctx, "rollback failed", "error", err)
		return
	}
	db.tree = tree
	db.syncGenerators()
}

// syncGenerators matches the generators to the current tree. Generators of
// collections that are still present only move forward.
func (db *DB) syncGenerators() {
	for name := range db.generators {
		if _, ok := db.tree.Collections[name]; !ok {
			delete(db.generators, name)
		}
	}
	for name, docs := range db.tree.Collections {
		if gen, ok := db.generators[name]; ok {
			gen.Observe(document.MaxID(docs))
		} else {
			db.generators[name] = document.NewIDGenerator(docs)
		}
	}
}

// CreateCollection creates a collection holding initial, which receives the
// ids 1..N in order, and persists the database.
func (db *DB) CreateCollection(ctx context.Context, name string, initial ...Document) (*Collection, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.checkReady(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, driverError(ErrInvalidCollectionName, "empty name", nil)
	}
	if _, ok := db.tree.Collections[name]; ok {
		return nil, driverError(ErrCollectionExists, name, nil)
	}

	docs, err := normalizeAll(initial)
	if err != nil {
		return nil, err
	}

	gen := document.NewIDGenerator(nil)
	for _, d := range docs {
		d[document.IDField] = gen.Next()
	}
	db.tree.Collections[name] = docs
	db.generators[name] = gen

	if err := db.commitLocked(ctx); err != nil {
		return nil, err
	}

	db.opts.logger.WithCollection(name).InfoContext(ctx, "collection created", "documents", len(docs))
	return &Collection{name: name, db: db}, nil
}

// Collection returns a handle for an existing collection.
func (db *DB) Collection(name string) (*Collection, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if err := db.checkReady(); err != nil {
		return nil, err
	}
	if _, ok := db.tree.Collections[name]; !ok {
		return nil, driverError(ErrCollectionNotFound, name, nil)
	}
	return &Collection{name: name, db: db}, nil
}

// CollectionNames returns the collection names in sorted order.
func (db *DB) CollectionNames() ([]string, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if err := db.checkReady(); err != nil {
		return nil, err
	}
	return db.tree.Names(), nil
}

// SelectAll returns a copy of the entire database tree.
func (db *DB) SelectAll() (Tree, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if err := db.checkReady(); err != nil {
		return Tree{}, err
	}
	return db.tree.Clone(), nil
}

// Drop removes the collection name and persists the database. Dropping a
// collection that does not exist still persists.
func (db *DB) Drop(ctx context.Context, name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.checkReady(); err != nil {
		return err
	}

	delete(db.tree.Collections, name)
	if err := db.commitLocked(ctx); err != nil {
		return err
	}
	delete(db.generators, name)
	return nil
}

// DropDB removes every collection and persists an empty database.
func (db *DB) DropDB(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.checkReady(); err != nil {
		return err
	}

	db.tree = document.NewTree()
	if err := db.commitLocked(ctx); err != nil {
		return err
	}
	clear(db.generators)
	return nil
}

// Close releases the storage adapter if it implements io.Closer.
// Any further call fails with ErrClosed.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return ErrClosed
	}
	db.closed = true
	db.tree = document.NewTree()
	clear(db.generators)

	if c, ok := db.adapter.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func normalizeAll(docs []Document) ([]Document, error) {
	out := make([]Document, 0, len(docs))
	for i, d := range docs {
		nd, err := document.NormalizeDocument(d)
		if err != nil {
			return nil, driverError(ErrInvalidDocument, "document "+strconv.Itoa(i), err)
		}
		out = append(out, nd)
	}
	return out, nil
}
