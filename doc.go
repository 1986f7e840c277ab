// Package stegdb provides an embedded, single-file document database for Go.
//
// The whole database is one tree of named collections held in memory. Every
// mutating call serializes the tree and commits it through a storage.Adapter
// before it returns. The default adapter for .png and .bmp paths hides the
// database inside the image pixels; other adapters keep it in a plain file,
// in memory, in SQLite, in S3 or in MinIO.
//
// # Quick Start
//
//	ctx := context.Background()
//	db, err := stegdb.Connect(ctx, "cover.png")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	users, _ := db.CreateCollection(ctx, "users")
//	res, _ := users.InsertOne(ctx, stegdb.Document{"name": "ada", "age": 36})
//	fmt.Println(res.InsertedID) // 1
//
// # Queries
//
// Filters follow the MongoDB shape. A plain value means equality, an
// operator document applies every listed operator:
//
//	docs, _ := users.Find(stegdb.Filter{
//	    "age":  stegdb.Filter{"$gte": 18, "$lt": 65},
//	    "$or":  []any{stegdb.Filter{"role": "admin"}, stegdb.Filter{"role": "owner"}},
//	}, stegdb.WithProjection(stegdb.Projection{"name": 1}))
//
// Supported comparison operators are $eq, $ne, $gt, $gte, $lt, $lte, $in and
// $nin. $and and $or are accepted at the top level only. More comparison
// operators can be added with query.RegisterComparison.
//
// # Updates
//
// Updates use $set and $unset; $unset is applied first. Any other top-level
// key fails the whole call with ErrInvalidOperator before a document changes.
//
//	n, err := users.UpdateOne(ctx, stegdb.Filter{"name": "ada"},
//	    stegdb.Update{"$set": map[string]any{"age": 37}})
//
// # Ids
//
// Every collection has a generator handing out strictly increasing int64 ids
// starting at max(_id)+1 of the loaded documents, or 1. Ids are never reused
// while the process runs, even if a commit fails.
//
// # Errors
//
// Path validation fails with a *ConnectionError, database operations with a
// *DriverError. Compare with errors.Is against the exported sentinels:
//
//	if errors.Is(err, stegdb.ErrCollectionNotFound) { ... }
//
// A failed commit returns ErrCommitFailed wrapping the adapter error and
// leaves the in-memory database at its last committed state.
//
// # Snapshots
//
// CreateSnapshot exports the committed content as a checksummed base64 file
// and LoadFromBackup restores it.
package stegdb
