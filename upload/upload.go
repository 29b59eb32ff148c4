// Package upload ties the pieces of a document submission together:
// client-side validation, the HTTP transfer, progress synthesis, and the
// local history.
package upload

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/projecteru2/core/log"

	"github.com/projecteru2/docup/config"
	"github.com/projecteru2/docup/history"
	"github.com/projecteru2/docup/progress"
	"github.com/projecteru2/docup/synth"
	"github.com/projecteru2/docup/transfer"
	"github.com/projecteru2/docup/types"
	"github.com/projecteru2/docup/validate"
)

// Uploader submits documents one at a time and exposes the synthesized
// progress of the current one.
type Uploader struct {
	rules    validate.Rules
	observer *transfer.Observer
	synth    *synth.Synthesizer
	history  *history.History
	tracker  progress.Tracker

	// mu serializes uploads: the Synthesizer tracks one transfer at a time.
	mu sync.Mutex
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithHistory records every successful upload in h.
func WithHistory(h *history.History) Option {
	return func(u *Uploader) { u.history = h }
}

// WithSynthesizer replaces the Synthesizer built from the config.
func WithSynthesizer(s *synth.Synthesizer) Option {
	return func(u *Uploader) {
		if s != nil {
			u.synth = s
		}
	}
}

// WithObserver replaces the Observer built from the config.
func WithObserver(o *transfer.Observer) Option {
	return func(u *Uploader) {
		if o != nil {
			u.observer = o
		}
	}
}

// WithTracker additionally receives the raw transfer events.
func WithTracker(t progress.Tracker) Option {
	return func(u *Uploader) {
		if t != nil {
			u.tracker = t
		}
	}
}

// New builds an Uploader from conf.
func New(conf *config.Config, opts ...Option) (*Uploader, error) {
	rules, err := conf.ValidationRules()
	if err != nil {
		return nil, err
	}
	u := &Uploader{
		rules: rules,
		observer: transfer.New(conf.Endpoint,
			transfer.WithTimeout(conf.Timeout),
			transfer.WithReportInterval(conf.ReportInterval),
			transfer.WithChunkedBody(conf.Chunked),
		),
		synth: synth.New(
			synth.WithBands(conf.Bands),
			synth.WithLocale(conf.Locale),
		),
		tracker: progress.Nop,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u, nil
}

// Rules returns the validation policy applied before each upload.
func (u *Uploader) Rules() validate.Rules { return u.rules }

// Catalog returns the message catalog used for snapshots.
func (u *Uploader) Catalog() *synth.Catalog { return u.synth.Catalog() }

// Subscribe registers fn for every progress snapshot.
func (u *Uploader) Subscribe(fn func(synth.Snapshot)) func() {
	return u.synth.Subscribe(fn)
}

// Snapshot returns the progress of the current or last upload.
func (u *Uploader) Snapshot() synth.Snapshot { return u.synth.Snapshot() }

// Upload validates and submits the file at path. A file that fails
// validation returns *validate.Error and never starts a transfer.
func (u *Uploader) Upload(ctx context.Context, path string) (*types.UploadResult, error) {
	logger := log.WithFunc("upload.Upload")

	problems, err := validate.File(path, u.rules)
	if err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	if len(problems) > 0 {
		return nil, &validate.Error{File: path, Problems: problems}
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	id := uuid.NewString()
	started := time.Now()
	u.synth.Start(id)

	result, err := u.observer.Upload(ctx, id, path, progress.Multi(u.synth, u.tracker))
	if err != nil {
		logger.Warnf(ctx, "upload %s of %s failed: %v", id, path, err)
		return nil, err
	}

	if u.history != nil {
		rec := &types.HistoryRecord{
			ID:         id,
			File:       path,
			Result:     result,
			StartedAt:  started,
			FinishedAt: time.Now(),
		}
		if err := u.history.Record(ctx, rec); err != nil {
			logger.Warnf(ctx, "record upload %s in history: %v", id, err)
		}
	}
	return result, nil
}

// Outcome is the result of one file in a batch.
type Outcome struct {
	Path   string
	Result *types.UploadResult
	Err    error
}

// UploadAll submits paths one after another; each file restarts the
// progress timeline. onFile, if set, is called before each file with its
// 1-based position. Once ctx is done the remaining files are not tried.
func (u *Uploader) UploadAll(ctx context.Context, paths []string, onFile func(index, total int, path string)) []Outcome {
	outcomes := make([]Outcome, len(paths))
	for i, p := range paths {
		outcomes[i].Path = p
		if err := ctx.Err(); err != nil {
			outcomes[i].Err = err
			continue
		}
		if onFile != nil {
			onFile(i+1, len(paths), p)
		}
		outcomes[i].Result, outcomes[i].Err = u.Upload(ctx, p)
	}
	return outcomes
}

// Info passes through the server's /upload/info document.
func (u *Uploader) Info(ctx context.Context) (*types.UploadInfo, error) {
	return u.observer.Info(ctx)
}

// Close stops any running progress simulation.
func (u *Uploader) Close() {
	u.synth.Stop()
}
