//go:build unix

package storage

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/hantyrram/stegdb/internal/fs"
)

func lockFile(f fs.File) error {
	err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if errors.Is(err, unix.EWOULDBLOCK) {
		return fmt.Errorf("%w: %s", ErrLocked, f.Name())
	}
	if err != nil {
		return fmt.Errorf("storage: lock %s: %w", f.Name(), err)
	}
	return nil
}

func unlockFile(f fs.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
