//go:build !unix

package storage

func lockHeld(error) bool {
	return false
}
