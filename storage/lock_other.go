//go:build !unix

package storage

import "github.com/hantyrram/stegdb/internal/fs"

func lockFile(fs.File) error   { return nil }
func unlockFile(fs.File) error { return nil }
