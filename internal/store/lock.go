package store

import (
	"fmt"

	"github.com/gofrs/flock"

	"github.com/bazarr-bulk/bb/internal/apperrors"
)

// Lock is an advisory lock next to the ledger that keeps two runs from sharing it.
type Lock struct {
	lock *flock.Flock
}

// AcquireLock takes <path>.lock without blocking.
// It returns apperrors.ErrStoreLocked when another process holds it.
func AcquireLock(path string) (*Lock, error) {
	l := flock.New(path + ".lock")
	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire store lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrStoreLocked, l.Path())
	}
	return &Lock{lock: l}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.lock.Path()
}

// Release unlocks. It is safe to call on a nil Lock.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	return l.lock.Unlock()
}
