// Package lockfile provides the single-instance guard for wifiroamd.
//
// Two daemons issuing connect commands against the same radio would fight
// each other, so an advisory flock on a well-known path is taken once at
// startup and held for the process lifetime.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// ErrLockHeld is returned when another instance owns the lock.
var ErrLockHeld = errors.New("lock already held by another instance")

// Lock is an acquired advisory file lock.
type Lock struct {
	path string
	file *os.File
}

// Acquire takes an exclusive non-blocking flock on path and writes the
// holder's PID into it. It returns ErrLockHeld if another process has the
// lock.
func Acquire(path string) (*Lock, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		file.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("%s: %w", path, ErrLockHeld)
		}
		return nil, fmt.Errorf("flock %s: %w", path, err)
	}

	// The PID is informational, for operators inspecting the lock file;
	// the flock itself is what enforces exclusion.
	if err := file.Truncate(0); err == nil {
		_, _ = file.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
	}

	return &Lock{path: path, file: file}, nil
}

// Release drops the lock and removes the file. Safe to call once from any
// exit path; the kernel releases the flock on process death regardless.
func (l *Lock) Release() error {
	if l.file == nil {
		return nil
	}
	err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil
	_ = os.Remove(l.path)
	if err != nil {
		return fmt.Errorf("unlock %s: %w", l.path, err)
	}
	return closeErr
}
