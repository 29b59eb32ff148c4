package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	units "github.com/docker/go-units"
	"github.com/gabriel-vasile/mimetype"
	"github.com/projecteru2/core/log"

	"github.com/projecteru2/docup/progress"
	transferProgress "github.com/projecteru2/docup/progress/transfer"
	"github.com/projecteru2/docup/types"
)

const (
	// DefaultTimeout bounds one upload including server-side processing.
	DefaultTimeout = 5 * time.Minute

	// report every 64 KiB
	DefaultReportInterval = 64 << 10

	// maxErrorBody caps how much of an error response is read.
	maxErrorBody = 64 << 10
)

// Observer performs document uploads and reports their lifecycle as
// transfer events. It never retries.
type Observer struct {
	endpoint       string
	client         *http.Client
	reportInterval int64
	chunked        bool
}

// Option configures an Observer.
type Option func(*Observer)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Observer) {
		if c != nil {
			o.client = c
		}
	}
}

// WithTimeout sets the overall request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(o *Observer) {
		if d > 0 {
			o.client = &http.Client{Timeout: d, Transport: o.client.Transport}
		}
	}
}

// WithReportInterval sets how many bytes pass between progress events.
func WithReportInterval(n int64) Option {
	return func(o *Observer) {
		if n > 0 {
			o.reportInterval = n
		}
	}
}

// WithChunkedBody sends the body without a Content-Length. Progress events
// then carry no total.
func WithChunkedBody(chunked bool) Option {
	return func(o *Observer) { o.chunked = chunked }
}

// New creates an Observer for the service rooted at endpoint.
func New(endpoint string, opts ...Option) *Observer {
	o := &Observer{
		endpoint:       endpoint,
		client:         &http.Client{Timeout: DefaultTimeout},
		reportInterval: DefaultReportInterval,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Endpoint returns the service root the Observer talks to.
func (o *Observer) Endpoint() string { return o.endpoint }

// Upload posts the file at path to {endpoint}/upload. Every lifecycle step is
// reported to tracker as a transferProgress.Event tagged with id, ending with
// exactly one Completed or Failed. The decoded server response is returned.
func (o *Observer) Upload(ctx context.Context, id, path string, tracker progress.Tracker) (*types.UploadResult, error) {
	logger := log.WithFunc("transfer.Upload")
	em := &emitter{id: id, tracker: tracker}

	result, err := o.upload(ctx, path, em)
	if err != nil {
		em.emit(transferProgress.Failed(id, err))
		return nil, err
	}
	logger.Infof(ctx, "upload %s done: %s stored at %s", id, result.Filename, result.StoragePath)
	em.emit(transferProgress.Completed(id, result))
	return result, nil
}

func (o *Observer) upload(ctx context.Context, path string, em *emitter) (*types.UploadResult, error) {
	logger := log.WithFunc("transfer.upload")

	target, err := url.JoinPath(o.endpoint, "upload")
	if err != nil {
		return nil, fmt.Errorf("build upload url: %w", err)
	}

	f, err := os.Open(path) //nolint:gosec // path chosen by the user
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return nil, fmt.Errorf("detect type of %s: %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind %s: %w", path, err)
	}

	body, err := newMultipartBody(filepath.Base(path), mt.String(), f, info.Size())
	if err != nil {
		return nil, err
	}

	total := body.length
	if o.chunked {
		total = transferProgress.UnknownTotal
	}
	var sentOnce sync.Once
	sent := func() { sentOnce.Do(func() { em.emit(transferProgress.Sent(em.id)) }) }
	counter := &countingReader{
		r:        body,
		total:    total,
		interval: o.reportInterval,
		onFirst:  sent,
		report: func(loaded, total int64) {
			em.emit(transferProgress.Bytes(em.id, loaded, total))
		},
	}

	trace := &httptrace.ClientTrace{WroteHeaders: sent}
	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(ctx, trace), http.MethodPost, target, io.NopCloser(counter))
	if err != nil {
		return nil, fmt.Errorf("create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", body.contentType)
	req.Header.Set("Accept", "application/json")
	if o.chunked {
		req.ContentLength = -1
	} else {
		req.ContentLength = body.length
	}

	logger.Infof(ctx, "uploading %s (%s, %s) to %s", path, units.HumanSize(float64(info.Size())), mt.String(), target)
	resp, err := o.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("POST %s: %w", target, ctxErr)
		}
		return nil, fmt.Errorf("%w: POST %s: %w", ErrConnection, target, err)
	}
	defer resp.Body.Close() //nolint:errcheck
	em.emit(transferProgress.Headers(em.id))

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, statusError(resp)
	}

	var result types.UploadResult
	br := &firstByteReader{r: resp.Body, onFirst: func() { em.emit(transferProgress.Body(em.id)) }}
	if err := json.NewDecoder(br).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	return &result, nil
}

// Info fetches the server-declared limits from {endpoint}/upload/info.
func (o *Observer) Info(ctx context.Context) (*types.UploadInfo, error) {
	logger := log.WithFunc("transfer.Info")

	target, err := url.JoinPath(o.endpoint, "upload", "info")
	if err != nil {
		return nil, fmt.Errorf("build info url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("GET %s: %w", target, ctxErr)
		}
		return nil, fmt.Errorf("%w: GET %s: %w", ErrConnection, target, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read info response: %w", err)
	}

	info := &types.UploadInfo{Raw: raw}
	if err := json.Unmarshal(raw, info); err != nil {
		// The document is opaque; the typed view is a convenience only.
		logger.Warnf(ctx, "info response has unexpected shape: %v", err)
	}
	return info, nil
}

// statusError builds a StatusError from a rejected response, picking up
// the server's structured message when present.
func statusError(resp *http.Response) error {
	se := &StatusError{Code: resp.StatusCode, Status: resp.Status}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return errors.Join(se, fmt.Errorf("read error body: %w", err))
	}
	var body types.ErrorBody
	if json.Unmarshal(raw, &body) == nil {
		se.Message = body.Message
	}
	return se
}

// emitter serializes events for one transfer and drops anything after the
// terminal event.
type emitter struct {
	id      string
	tracker progress.Tracker

	mu   sync.Mutex
	done bool
}

func (e *emitter) emit(ev transferProgress.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.done {
		return
	}
	if ev.Terminal() {
		e.done = true
	}
	e.tracker.OnEvent(ev)
}
