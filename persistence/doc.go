// Package persistence turns a database tree into bytes and back, and defines
// the snapshot (backup) frame.
//
// # Database content
//
// The adapter content is a single JSON object:
//
//	{"collections": {"users": [{"_id": 1, "name": "ada"}]}}
//
// Decode also accepts the legacy layout written by early releases, where the
// collections map is the root object itself.
//
// # Snapshots
//
// A snapshot is the base64 encoding of:
//
//	magic "SDBK" | payload length (uint64 LE) | payload | CRC32 (uint32 LE)
//
// where payload is the raw adapter content. Backups made before the frame
// existed are plain base64 of the payload and are still accepted.
package persistence
