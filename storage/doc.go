// Package storage provides the byte storage adapters a stegdb database is
// persisted through.
//
// An Adapter holds one opaque blob: the serialized database. Writes are
// buffered until Commit flushes them durably.
//
// # Built-in Implementations
//
//   - File: a plain file, committed via temp file + rename, guarded by an
//     advisory lock
//   - Memory: in-process, for tests and ephemeral databases
//   - Compressed: wraps another Adapter with zstd or lz4 framing
//   - steg.Adapter: hides the content in the pixels of a PNG or BMP image
//   - s3.Adapter, minio.Adapter: one object in a bucket
//   - sqlite.Adapter: one row in a SQLite table
//
// # Custom Implementations
//
//	type Adapter interface {
//	    Init(ctx) error        // load current content
//	    Read() ([]byte, error) // committed content
//	    Write(p) error         // buffer pending content
//	    Commit(ctx) error      // flush pending content
//	    Size() int64           // committed size
//	}
//
// Adapters that hold resources should also implement io.Closer.
package storage
