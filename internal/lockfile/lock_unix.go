//go:build unix

package lockfile

import (
	"os"

	"golang.org/x/sys/unix"
)

// AcquireExclusiveNonBlocking attempts to take an exclusive,
// non-blocking lock on f. Returns ErrLockBusy if another process
// already holds it.
func AcquireExclusiveNonBlocking(f *os.File) error {
	err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err == unix.EWOULDBLOCK {
		return ErrLockBusy
	}
	return err
}

// Release drops the lock held on f.
func Release(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
