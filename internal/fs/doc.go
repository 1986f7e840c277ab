// Package fs abstracts the file operations used by the file-backed storage
// adapters so tests can inject failures.
//
//   - [LocalFS]: the os package (fs.Default)
//   - [FaultyFS]: wraps another FileSystem and fails writes, syncs, closes or
//     renames for files whose name contains a configured pattern
//
// Typical test usage:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".tmp", fs.Fault{FailOnSync: true})
//	adapter := storage.NewFile(path, storage.WithFileSystem(ffs))
//
// Operations take no context.Context; local file calls cannot be cancelled
// at the syscall level.
package fs
