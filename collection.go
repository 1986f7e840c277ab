package stegdb

import "context"

// Collection is a handle for one named collection. It holds no documents;
// every call delegates to the owning DB, so a handle stays valid across
// reloads and reports ErrCollectionNotFound once the collection is dropped.
type Collection struct {
	name string
	db   *DB
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// InsertOne inserts doc. See DB.InsertOne.
func (c *Collection) InsertOne(ctx context.Context, doc Document) (InsertOneResult, error) {
	return c.db.InsertOne(ctx, c.name, doc)
}

// InsertMany inserts docs. See DB.InsertMany.
func (c *Collection) InsertMany(ctx context.Context, docs []Document) (InsertManyResult, error) {
	return c.db.InsertMany(ctx, c.name, docs)
}

// FindOne returns the first match. See DB.FindOne.
func (c *Collection) FindOne(filter Filter, opts ...FindOption) (Document, error) {
	return c.db.FindOne(c.name, filter, opts...)
}

// Find returns all matches. See DB.Find.
func (c *Collection) Find(filter Filter, opts ...FindOption) ([]Document, error) {
	return c.db.Find(c.name, filter, opts...)
}

// SelectAll returns every document of the collection in storage order.
func (c *Collection) SelectAll() ([]Document, error) {
	return c.db.Find(c.name, nil)
}

// CountDocuments counts matches. See DB.CountDocuments.
func (c *Collection) CountDocuments(filter Filter) (int, error) {
	return c.db.CountDocuments(c.name, filter)
}

// UpdateOne updates the first match. See DB.UpdateOne.
func (c *Collection) UpdateOne(ctx context.Context, filter Filter, spec Update) (int, error) {
	return c.db.UpdateOne(ctx, c.name, filter, spec)
}

// UpdateMany updates every match. See DB.UpdateMany.
func (c *Collection) UpdateMany(ctx context.Context, filter Filter, spec Update) (int, error) {
	return c.db.UpdateMany(ctx, c.name, filter, spec)
}

// DeleteOne deletes the first match. See DB.DeleteOne.
func (c *Collection) DeleteOne(ctx context.Context, filter Filter) (int, error) {
	return c.db.DeleteOne(ctx, c.name, filter)
}

// DeleteMany deletes every match. See DB.DeleteMany.
func (c *Collection) DeleteMany(ctx context.Context, filter Filter) (int, error) {
	return c.db.DeleteMany(ctx, c.name, filter)
}

// Drop removes the collection. See DB.Drop.
func (c *Collection) Drop(ctx context.Context) error {
	return c.db.Drop(ctx, c.name)
}
