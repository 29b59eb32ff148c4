// Package history keeps a local record of completed uploads in a JSON index
// guarded by a file lock, so concurrent docup processes can share it.
package history

import (
	"context"
	"fmt"
	"slices"

	"github.com/projecteru2/core/log"

	"github.com/projecteru2/docup/config"
	"github.com/projecteru2/docup/lock"
	"github.com/projecteru2/docup/lock/flock"
	"github.com/projecteru2/docup/storage"
	storejson "github.com/projecteru2/docup/storage/json"
	"github.com/projecteru2/docup/types"
)

// History is the persisted list of completed uploads.
type History struct {
	conf   *config.Config
	limit  int
	store  storage.Store[uploadIndex]
	locker lock.Locker
}

// New opens the history under conf.RootDir, creating its directory.
func New(ctx context.Context, conf *config.Config) (*History, error) {
	if err := conf.EnsureHistoryDirs(); err != nil {
		return nil, fmt.Errorf("ensure dirs: %w", err)
	}
	log.WithFunc("history.New").Infof(ctx, "upload history at %s", conf.HistoryIndexFile())
	locker := flock.New(conf.HistoryIndexLock())
	return &History{
		conf:   conf,
		limit:  conf.HistoryLimit,
		store:  storejson.New[uploadIndex](conf.HistoryIndexFile(), locker),
		locker: locker,
	}, nil
}

// Record appends rec and prunes the oldest records beyond the configured limit.
func (h *History) Record(ctx context.Context, rec *types.HistoryRecord) error {
	logger := log.WithFunc("history.Record")
	return h.store.Update(ctx, func(idx *uploadIndex) error {
		idx.Records = append(idx.Records, rec)
		if n := idx.prune(h.limit); n > 0 {
			logger.Infof(ctx, "pruned %d old record(s)", n)
		}
		return nil
	})
}

// List returns all records, newest first.
func (h *History) List(ctx context.Context) (result []*types.HistoryRecord, err error) {
	err = h.store.With(ctx, func(idx *uploadIndex) error {
		result = slices.Clone(idx.Records)
		slices.Reverse(result)
		return nil
	})
	return
}

// Get returns the record with the given transfer id or unique id prefix.
func (h *History) Get(ctx context.Context, id string) (rec *types.HistoryRecord, err error) {
	err = h.store.With(ctx, func(idx *uploadIndex) error {
		found, ok := idx.Lookup(id)
		if !ok {
			return fmt.Errorf("record %q not found", id)
		}
		rec = found
		return nil
	})
	return
}

// Prune keeps at most maxEntries of the newest records and returns how many
// were removed.
func (h *History) Prune(ctx context.Context, maxEntries int) (removed int, err error) {
	err = h.store.Update(ctx, func(idx *uploadIndex) error {
		removed = idx.prune(maxEntries)
		return nil
	})
	return
}

// Clear removes every record and returns how many there were.
func (h *History) Clear(ctx context.Context) (removed int, err error) {
	err = h.store.Update(ctx, func(idx *uploadIndex) error {
		removed = len(idx.Records)
		idx.Records = idx.Records[:0]
		return nil
	})
	return
}
