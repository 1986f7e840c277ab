//go:build unix

package stegdb

import "golang.org/x/sys/unix"

// access checks that path is readable and writable by the current user.
func access(path string) error {
	return unix.Access(path, unix.R_OK|unix.W_OK)
}
