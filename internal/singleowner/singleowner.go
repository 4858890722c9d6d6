// Package singleowner enforces the documented precondition that exactly one
// process owns a data directory at a time (spec §5's "Shared resources: data
// directory — this process only"). It uses an advisory file lock rather than
// a database lock, since the whole runtime is file-based.
package singleowner

import (
	"fmt"

	"github.com/gofrs/flock"

	"github.com/openclaw/plashboard/internal/domain"
)

// ErrDataDirBusy is returned when another process already holds the lock.
var ErrDataDirBusy = fmt.Errorf("%w: data directory is locked by another process", domain.ErrConfigInvalid)

// Guard wraps an advisory lock file at the root of a data directory.
type Guard struct {
	lock *flock.Flock
}

// Acquire takes a non-blocking exclusive lock on lockPath. It fails fast with
// ErrDataDirBusy instead of waiting, since a second plashboardd against the
// same data_dir is a misconfiguration, not a queueing scenario.
func Acquire(lockPath string) (*Guard, error) {
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("%w: acquire data dir lock %s: %v", domain.ErrIO, lockPath, err)
	}
	if !locked {
		return nil, ErrDataDirBusy
	}
	return &Guard{lock: lock}, nil
}

// Release unlocks the data directory. Safe to call on a nil Guard.
func (g *Guard) Release() error {
	if g == nil || g.lock == nil {
		return nil
	}
	return g.lock.Unlock()
}
