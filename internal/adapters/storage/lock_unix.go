//go:build unix

package storage

import (
	"errors"
	"syscall"
)

// lockHeld reports whether err is flock refusing the LOCK file
func lockHeld(err error) bool {
	return errors.Is(err, syscall.EWOULDBLOCK)
}
