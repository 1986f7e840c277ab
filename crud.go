package stegdb

import (
	"context"
	"slices"
	"time"

	"github.com/hantyrram/stegdb/document"
	"github.com/hantyrram/stegdb/query"
	"github.com/hantyrram/stegdb/update"
)

// InsertOneResult is the result of InsertOne.
type InsertOneResult struct {
	InsertedID int64
}

// InsertManyResult is the result of InsertMany.
type InsertManyResult struct {
	InsertedIDs []int64
}

type findOptions struct {
	projection query.Projection
	limit      int
	skip       int
}

// FindOption configures Find and FindOne.
type FindOption func(*findOptions)

// WithProjection shapes the returned documents.
func WithProjection(p Projection) FindOption {
	return func(o *findOptions) {
		o.projection = p
	}
}

// WithLimit returns at most n documents. Zero means no limit.
func WithLimit(n int) FindOption {
	return func(o *findOptions) {
		o.limit = max(n, 0)
	}
}

// WithSkip skips the first n matching documents.
func WithSkip(n int) FindOption {
	return func(o *findOptions) {
		o.skip = max(n, 0)
	}
}

// InsertOne appends doc to the collection name with the next id and persists.
// A caller-supplied _id is overwritten. doc itself is not modified.
func (db *DB) InsertOne(ctx context.Context, name string, doc Document) (InsertOneResult, error) {
	res, err := db.insert(ctx, name, []Document{doc})
	if err != nil {
		return InsertOneResult{}, err
	}
	return InsertOneResult{InsertedID: res[0]}, nil
}

// InsertMany appends docs in order with consecutive ids and persists once.
func (db *DB) InsertMany(ctx context.Context, name string, docs []Document) (InsertManyResult, error) {
	res, err := db.insert(ctx, name, docs)
	if err != nil {
		return InsertManyResult{}, err
	}
	return InsertManyResult{InsertedIDs: res}, nil
}

func (db *DB) insert(ctx context.Context, name string, docs []Document) (ids []int64, err error) {
	start := time.Now()
	defer func() {
		db.opts.metricsCollector.RecordInsert(len(docs), time.Since(start), err)
		db.opts.logger.LogInsert(ctx, name, len(docs), err)
	}()

	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.checkReady(); err != nil {
		return nil, err
	}
	existing, ok := db.tree.Collections[name]
	if !ok {
		return nil, driverError(ErrCollectionNotFound, name, nil)
	}

	normalized, err := normalizeAll(docs)
	if err != nil {
		return nil, err
	}

	gen := db.generators[name]
	ids = make([]int64, len(normalized))
	for i, d := range normalized {
		ids[i] = gen.Next()
		d[document.IDField] = ids[i]
	}
	db.tree.Collections[name] = append(existing, normalized...)

	if err := db.commitLocked(ctx); err != nil {
		return nil, err
	}
	return ids, nil
}

// FindOne returns the first document in storage order matching filter, or
// nil if there is none. A missing collection also yields nil.
func (db *DB) FindOne(name string, filter Filter, opts ...FindOption) (Document, error) {
	fo := findOptions{}
	for _, opt := range opts {
		opt(&fo)
	}
	if fo.skip > 0 {
		fo.limit = 1
		docs, err := db.find(name, filter, fo)
		if err != nil || len(docs) == 0 {
			return nil, err
		}
		return docs[0], nil
	}

	start := time.Now()
	var (
		found Document
		err   error
	)
	defer func() {
		n := 0
		if found != nil {
			n = 1
		}
		db.opts.metricsCollector.RecordFind(n, time.Since(start), err)
	}()

	found, err = db.findOne(name, filter, fo.projection)
	return found, err
}

func (db *DB) findOne(name string, filter Filter, projection Projection) (Document, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if err := db.checkReady(); err != nil {
		return nil, err
	}
	m, pr, err := compileRead(filter, projection)
	if err != nil {
		return nil, err
	}

	docs := db.tree.Collections[name]
	i := m.First(docs)
	if i < 0 {
		return nil, nil
	}
	return pr.Apply(docs[i]), nil
}

// Find returns the documents matching filter in storage order. An unknown
// collection yields an empty slice.
func (db *DB) Find(name string, filter Filter, opts ...FindOption) ([]Document, error) {
	fo := findOptions{}
	for _, opt := range opts {
		opt(&fo)
	}
	return db.find(name, filter, fo)
}

func (db *DB) find(name string, filter Filter, fo findOptions) (out []Document, err error) {
	start := time.Now()
	defer func() {
		db.opts.metricsCollector.RecordFind(len(out), time.Since(start), err)
	}()

	db.mu.RLock()
	defer db.mu.RUnlock()

	if err := db.checkReady(); err != nil {
		return nil, err
	}
	m, pr, err := compileRead(filter, fo.projection)
	if err != nil {
		return nil, err
	}

	docs := db.tree.Collections[name]
	matches := m.Match(docs)

	out = make([]Document, 0, matches.GetCardinality())
	skipped := 0
	it := matches.Iterator()
	for it.HasNext() {
		pos := it.Next()
		if skipped < fo.skip {
			skipped++
			continue
		}
		out = append(out, pr.Apply(docs[pos]))
		if fo.limit > 0 && len(out) == fo.limit {
			break
		}
	}
	return out, nil
}

// CountDocuments returns the number of documents matching filter.
func (db *DB) CountDocuments(name string, filter Filter) (int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if err := db.checkReady(); err != nil {
		return 0, err
	}
	m, err := query.Compile(filter)
	if err != nil {
		return 0, translateError(err)
	}
	return int(m.Match(db.tree.Collections[name]).GetCardinality()), nil
}

// UpdateOne applies spec to the first document matching filter and persists.
// spec is validated before anything is touched. It returns 0 or 1.
func (db *DB) UpdateOne(ctx context.Context, name string, filter Filter, spec Update) (int, error) {
	return db.update(ctx, name, filter, spec, false)
}

// UpdateMany applies spec to every document matching filter and persists once.
func (db *DB) UpdateMany(ctx context.Context, name string, filter Filter, spec Update) (int, error) {
	return db.update(ctx, name, filter, spec, true)
}

func (db *DB) update(ctx context.Context, name string, filter Filter, spec Update, many bool) (n int, err error) {
	start := time.Now()
	defer func() {
		db.opts.metricsCollector.RecordUpdate(n, time.Since(start), err)
		db.opts.logger.LogUpdate(ctx, name, n, err)
	}()

	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.checkReady(); err != nil {
		return 0, err
	}
	u, err := update.Compile(spec)
	if err != nil {
		return 0, translateError(err)
	}
	m, err := query.Compile(filter)
	if err != nil {
		return 0, translateError(err)
	}
	docs, ok := db.tree.Collections[name]
	if !ok {
		return 0, driverError(ErrCollectionNotFound, name, nil)
	}

	var positions []uint32
	if many {
		positions = m.Match(docs).ToArray()
	} else if i := m.First(docs); i >= 0 {
		positions = []uint32{uint32(i)}
	}
	if len(positions) == 0 {
		return 0, nil
	}

	for _, pos := range positions {
		docs[pos] = u.Apply(docs[pos])
	}
	if err := db.commitLocked(ctx); err != nil {
		return 0, err
	}
	return len(positions), nil
}

// DeleteOne removes the first document matching filter and persists.
// It returns 0 or 1.
func (db *DB) DeleteOne(ctx context.Context, name string, filter Filter) (int, error) {
	return db.delete(ctx, name, filter, false)
}

// DeleteMany removes every document matching filter and persists once.
func (db *DB) DeleteMany(ctx context.Context, name string, filter Filter) (int, error) {
	return db.delete(ctx, name, filter, true)
}

func (db *DB) delete(ctx context.Context, name string, filter Filter, many bool) (n int, err error) {
	start := time.Now()
	defer func() {
		db.opts.metricsCollector.RecordDelete(n, time.Since(start), err)
		db.opts.logger.LogDelete(ctx, name, n, err)
	}()

	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.checkReady(); err != nil {
		return 0, err
	}
	m, err := query.Compile(filter)
	if err != nil {
		return 0, translateError(err)
	}
	docs, ok := db.tree.Collections[name]
	if !ok {
		return 0, driverError(ErrCollectionNotFound, name, nil)
	}

	var remaining []Document
	if many {
		matches := m.Match(docs)
		n = int(matches.GetCardinality())
		remaining = make([]Document, 0, len(docs)-n)
		for i, d := range docs {
			if !matches.Contains(uint32(i)) {
				remaining = append(remaining, d)
			}
		}
	} else if i := m.First(docs); i >= 0 {
		n = 1
		remaining = slices.Delete(slices.Clone(docs), i, i+1)
	}
	if n == 0 {
		return 0, nil
	}

	db.tree.Collections[name] = remaining
	if err := db.commitLocked(ctx); err != nil {
		return 0, err
	}
	return n, nil
}

func compileRead(filter Filter, projection Projection) (*query.Matcher, *query.Projector, error) {
	m, err := query.Compile(filter)
	if err != nil {
		return nil, nil, translateError(err)
	}
	pr, err := query.CompileProjection(projection)
	if err != nil {
		return nil, nil, translateError(err)
	}
	return m, pr, nil
}
