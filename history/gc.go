package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/projecteru2/core/log"

	"github.com/projecteru2/docup/gc"
)

const (
	gcName = "history"

	// tempPrefix matches the temp files utils.AtomicWriteFile leaves behind
	// when a write is interrupted before its rename.
	tempPrefix   = ".tmp-"
	staleTempAge = time.Hour
)

// historySnapshot is the typed gc snapshot of the upload history.
type historySnapshot struct {
	overflow   []string // ids of the oldest records beyond the limit
	staleTemps []string // temp file names older than staleTempAge
}

// GCModule returns the gc module that trims the history to its limit and
// removes stale temp files from the history directory.
func (h *History) GCModule() gc.Module[historySnapshot] {
	return gc.Module[historySnapshot]{
		Name:   gcName,
		Locker: h.locker,
		ReadDB: func(context.Context) (historySnapshot, error) {
			var snap historySnapshot
			if err := h.store.Read(func(idx *uploadIndex) error {
				if h.limit > 0 && len(idx.Records) > h.limit {
					for _, rec := range idx.Records[:len(idx.Records)-h.limit] {
						snap.overflow = append(snap.overflow, rec.ID)
					}
				}
				return nil
			}); err != nil {
				return snap, err
			}
			temps, err := staleTemps(h.conf.HistoryDir(), time.Now().Add(-staleTempAge))
			if err != nil {
				return snap, err
			}
			snap.staleTemps = temps
			return snap, nil
		},
		Resolve: func(snap historySnapshot, _ map[string]any) []string {
			return append(snap.staleTemps, snap.overflow...)
		},
		Collect: h.collect,
	}
}

// RegisterGC registers the history gc module with the given Orchestrator.
func (h *History) RegisterGC(orch *gc.Orchestrator) {
	gc.Register(orch, h.GCModule())
}

func (h *History) collect(ctx context.Context, ids []string) error {
	logger := log.WithFunc("history.gc")
	var errs []error
	drop := map[string]struct{}{}
	for _, id := range ids {
		if !strings.HasPrefix(id, tempPrefix) {
			drop[id] = struct{}{}
			continue
		}
		if err := os.Remove(filepath.Join(h.conf.HistoryDir(), id)); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("remove %s: %w", id, err))
			continue
		}
		logger.Infof(ctx, "removed stale temp file %s", id)
	}
	if len(drop) > 0 {
		if err := h.store.Write(func(idx *uploadIndex) error {
			kept := idx.Records[:0]
			for _, rec := range idx.Records {
				if _, ok := drop[rec.ID]; !ok {
					kept = append(kept, rec)
				}
			}
			idx.Records = kept
			return nil
		}); err != nil {
			errs = append(errs, err)
		} else {
			logger.Infof(ctx, "dropped %d record(s) beyond limit %d", len(drop), h.limit)
		}
	}
	return errors.Join(errs...)
}

func staleTemps(dir string, cutoff time.Time) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), tempPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
