package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// LockFile is the advisory lock's file name under the repository root.
const LockFile = ".pqhub.lock"

const lockPollInterval = 200 * time.Millisecond

// Locker serializes repository mutations across processes with an
// advisory file lock.
type Locker struct {
	path string
	wait time.Duration
}

// NewLocker returns a locker for the repository rooted at root.
func NewLocker(root string, wait time.Duration) *Locker {
	return &Locker{path: filepath.Join(root, LockFile), wait: wait}
}

// Acquire takes the lock, polling until it is free, the wait elapses,
// or ctx is done. The returned release function must be called exactly
// once.
func (l *Locker) Acquire(ctx context.Context) (func(), error) {
	fl := flock.New(l.path)
	deadline := time.Now().Add(l.wait)
	for {
		locked, err := fl.TryLock()
		if err != nil {
			return nil, fmt.Errorf("cannot acquire repository lock %s: %w", l.path, err)
		}
		if locked {
			return func() { _ = fl.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return nil, &LockTimeoutError{Path: l.path, Wait: l.wait}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}
