// Package gc runs maintenance over docup's on-disk state. Each participating
// store registers a Module; a cycle locks every module, snapshots it, decides
// what to drop and collects it before releasing the locks.
package gc

import (
	"context"

	"github.com/projecteru2/docup/lock"
)

// Module describes one store taking part in a gc cycle. S is the snapshot
// type produced by ReadDB and consumed by Resolve.
type Module[S any] struct {
	Name string

	// Locker is tried, never waited on: a busy store (an upload appending to
	// the history) aborts the cycle instead of stalling it.
	Locker lock.Locker

	// ReadDB is called while Locker is held and must not re-acquire it.
	ReadDB func(ctx context.Context) (S, error)

	// Resolve picks the ids to drop. others holds the snapshots of every
	// module in the cycle, keyed by Name.
	Resolve func(snap S, others map[string]any) []string

	// Collect is called while Locker is held and must not re-acquire it.
	Collect func(ctx context.Context, ids []string) error
}

func (m Module[S]) getName() string        { return m.Name }
func (m Module[S]) getLocker() lock.Locker { return m.Locker }

func (m Module[S]) readSnapshot(ctx context.Context) (any, error) {
	return m.ReadDB(ctx)
}

func (m Module[S]) resolveTargets(snap any, others map[string]any) []string {
	typed, ok := snap.(S)
	if !ok || m.Resolve == nil {
		return nil
	}
	return m.Resolve(typed, others)
}

func (m Module[S]) collect(ctx context.Context, ids []string) error {
	return m.Collect(ctx, ids)
}
