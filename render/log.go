package render

import (
	"context"
	"sync"

	"github.com/projecteru2/core/log"

	"github.com/projecteru2/docup/synth"
)

// Log writes one log line whenever the phase or the message changes.
// Percentage-only changes are not logged.
type Log struct {
	ctx     context.Context //nolint:containedctx // logging context for callbacks
	catalog *synth.Catalog

	mu    sync.Mutex
	last  synth.Snapshot
	shown bool
}

// NewLog creates a Log renderer logging under ctx.
func NewLog(ctx context.Context, catalog *synth.Catalog) *Log {
	return &Log{ctx: ctx, catalog: catalog}
}

func (l *Log) Render(s synth.Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.shown && s.TransferID == l.last.TransferID && s.Phase == l.last.Phase && s.Message == l.last.Message {
		return
	}
	l.last, l.shown = s, true

	logger := log.WithFunc("render.Log")
	switch s.Phase {
	case synth.PhaseError:
		logger.Warnf(l.ctx, "[%s] %s: %s (%v)", s.TransferID, s.StatusLabel, s.Message, s.Failure)
	case synth.PhaseComplete:
		logger.Infof(l.ctx, "[%s] %s: %s", s.TransferID, s.StatusLabel, s.Message)
	default:
		if eta := remaining(s, l.catalog); eta != "" {
			logger.Infof(l.ctx, "[%s] %3d%% %s: %s (%s)", s.TransferID, s.Percentage, s.StatusLabel, s.Message, eta)
			return
		}
		logger.Infof(l.ctx, "[%s] %3d%% %s: %s", s.TransferID, s.Percentage, s.StatusLabel, s.Message)
	}
}
