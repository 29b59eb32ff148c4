package flock

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"

	"github.com/projecteru2/docup/lock"
)

const retryDelay = 50 * time.Millisecond

// compile-time interface check.
var _ lock.Locker = (*Lock)(nil)

// Lock guards a file shared by concurrent docup processes, e.g. two shells
// uploading at once and both appending to the history index.
//
// A one-slot channel serializes goroutines of this process; flock(2) on a
// fresh descriptor per acquisition serializes processes.
type Lock struct {
	path  string
	token chan struct{}
	held  *flock.Flock
}

// New creates a Lock backed by the file at path.
func New(path string) *Lock {
	return &Lock{path: path, token: make(chan struct{}, 1)}
}

// Lock blocks until the lock is held or ctx ends.
func (l *Lock) Lock(ctx context.Context) error {
	select {
	case l.token <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("lock %s: %w", l.path, ctx.Err())
	}
	fl := flock.New(l.path)
	ok, err := fl.TryLockContext(ctx, retryDelay)
	if err != nil || !ok {
		<-l.token
		if err == nil {
			err = ctx.Err()
		}
		return fmt.Errorf("flock %s: %w", l.path, err)
	}
	l.held = fl
	return nil
}

// TryLock acquires the lock only if it is free right now.
func (l *Lock) TryLock(_ context.Context) (bool, error) {
	select {
	case l.token <- struct{}{}:
	default:
		return false, nil
	}
	fl := flock.New(l.path)
	ok, err := fl.TryLock()
	if err != nil || !ok {
		<-l.token
		if err != nil {
			return false, fmt.Errorf("flock %s: %w", l.path, err)
		}
		return false, nil
	}
	l.held = fl
	return true, nil
}

// Unlock releases a lock taken by Lock or TryLock.
func (l *Lock) Unlock(_ context.Context) error {
	var err error
	if l.held != nil {
		err = l.held.Unlock()
		l.held = nil
	}
	select {
	case <-l.token:
	default:
	}
	if err != nil {
		return fmt.Errorf("unlock %s: %w", l.path, err)
	}
	return nil
}
