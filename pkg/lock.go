package pkg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrRunLocked is returned when another run holds the output root.
var ErrRunLocked = errors.New("output directory is in use by another run")

const lockFileName = ".photosort.lock"

// RunLock is an exclusive advisory lock on an output root.
type RunLock struct {
	path string
	lock *flock.Flock
}

// AcquireRunLock takes the output root's lock without blocking.
func AcquireRunLock(outputRoot string) (*RunLock, error) {
	path := filepath.Join(outputRoot, lockFileName)
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunLocked, outputRoot)
	}
	return &RunLock{path: path, lock: lock}, nil
}

// Release unlocks and removes the lock file.
func (l *RunLock) Release() error {
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock %s: %w", l.path, err)
	}
	return nil
}
