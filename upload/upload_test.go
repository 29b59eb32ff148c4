package upload

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projecteru2/docup/config"
	"github.com/projecteru2/docup/history"
	"github.com/projecteru2/docup/progress"
	"github.com/projecteru2/docup/render"
	transferProgress "github.com/projecteru2/docup/progress/transfer"
	"github.com/projecteru2/docup/synth"
	"github.com/projecteru2/docup/types"
	"github.com/projecteru2/docup/validate"
)

var pdfData = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")

type snapshots struct {
	mu   sync.Mutex
	list []synth.Snapshot
}

func (s *snapshots) observe(snap synth.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = append(s.list, snap)
}

func (s *snapshots) all() []synth.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]synth.Snapshot(nil), s.list...)
}

func testConfig(t *testing.T, endpoint string) *config.Config {
	t.Helper()
	conf := config.DefaultConfig()
	conf.Endpoint = endpoint
	conf.RootDir = t.TempDir()
	return conf
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

// documentService mimics the upload backend: it answers after a short
// processing delay with the stored document's metadata.
func documentService(t *testing.T, delay time.Duration) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		f, hdr, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(types.ErrorBody{Error: true, Message: "No file uploaded"})
			return
		}
		data, _ := io.ReadAll(f)
		_ = f.Close()
		time.Sleep(delay)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(types.UploadResult{
			Filename:           hdr.Filename,
			Size:               int64(len(data)),
			MimeType:           hdr.Header.Get("Content-Type"),
			RecognizedText:     "Recognized: " + hdr.Filename,
			UploadedAt:         time.Now().UTC(),
			SecurityScanPassed: true,
			StoragePath:        "/uploads/" + hdr.Filename,
		})
	})
	mux.HandleFunc("GET /upload/info", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"maxFileSize":"10MB","allowedTypes":["application/pdf"]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestUploadEndToEnd(t *testing.T) {
	t.Parallel()
	srv, _ := documentService(t, 50*time.Millisecond)
	conf := testConfig(t, srv.URL)
	hist, err := history.New(context.Background(), conf)
	require.NoError(t, err)

	var raw []transferProgress.Event
	var rawMu sync.Mutex
	u, err := New(conf, WithHistory(hist), WithTracker(progress.NewTracker(func(e transferProgress.Event) {
		rawMu.Lock()
		defer rawMu.Unlock()
		raw = append(raw, e)
	})))
	require.NoError(t, err)
	defer u.Close()

	seen := &snapshots{}
	unsubscribe := u.Subscribe(seen.observe)
	defer unsubscribe()

	path := writeFile(t, "invoice.pdf", pdfData)
	result, err := u.Upload(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "invoice.pdf", result.Filename)
	assert.Equal(t, "application/pdf", result.MimeType)
	assert.Equal(t, int64(len(pdfData)), result.Size)

	snaps := seen.all()
	require.NotEmpty(t, snaps)
	id := snaps[0].TransferID
	assert.NotEmpty(t, id)
	prev := 0
	phases := map[synth.Phase]bool{}
	for _, s := range snaps {
		assert.Equal(t, id, s.TransferID)
		assert.GreaterOrEqual(t, s.Percentage, prev)
		prev = s.Percentage
		phases[s.Phase] = true
	}
	for _, p := range []synth.Phase{synth.PhasePreparing, synth.PhaseUploading, synth.PhaseSecurityScan, synth.PhaseRecognition, synth.PhaseComplete} {
		assert.True(t, phases[p], "phase %s never published", p)
	}
	last := snaps[len(snaps)-1]
	assert.Equal(t, synth.PhaseComplete, last.Phase)
	assert.Equal(t, 100, last.Percentage)
	assert.Same(t, result, last.Result)
	current := u.Snapshot()
	assert.Equal(t, id, current.TransferID)
	assert.Equal(t, synth.PhaseComplete, current.Phase)

	rawMu.Lock()
	assert.Equal(t, transferProgress.KindCompleted, raw[len(raw)-1].Kind)
	rawMu.Unlock()

	records, err := hist.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, id, records[0].ID)
	assert.Equal(t, path, records[0].File)
	assert.Equal(t, "Recognized: invoice.pdf", records[0].Result.RecognizedText)
	assert.False(t, records[0].FinishedAt.Before(records[0].StartedAt))
}

func TestUploadValidationFailureSkipsTransfer(t *testing.T) {
	t.Parallel()
	srv, calls := documentService(t, 0)
	u, err := New(testConfig(t, srv.URL))
	require.NoError(t, err)
	seen := &snapshots{}
	u.Subscribe(seen.observe)

	_, err = u.Upload(context.Background(), writeFile(t, "notes.txt", []byte("plain text notes\n")))
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"File type not supported. Please use JPG, PNG, or PDF files."}, verr.Problems)
	assert.Equal(t, int32(0), calls.Load())
	assert.Empty(t, seen.all(), "a rejected file never starts a transfer")
}

func TestUploadSizeLimitFromConfig(t *testing.T) {
	t.Parallel()
	srv, calls := documentService(t, 0)
	conf := testConfig(t, srv.URL)
	conf.MaxFileSize = "16B"
	u, err := New(conf)
	require.NoError(t, err)

	_, err = u.Upload(context.Background(), writeFile(t, "big.pdf", pdfData))
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Problems[0], "File size exceeds")
	assert.Equal(t, int32(0), calls.Load())
}

func TestUploadServerRejection(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		_ = json.NewEncoder(w).Encode(types.ErrorBody{Error: true, Message: "File too large"})
	}))
	t.Cleanup(srv.Close)
	conf := testConfig(t, srv.URL)
	hist, err := history.New(context.Background(), conf)
	require.NoError(t, err)

	u, err := New(conf, WithHistory(hist), WithSynthesizer(synth.New(synth.WithLocale("de"))))
	require.NoError(t, err)
	_, err = u.Upload(context.Background(), writeFile(t, "scan.pdf", pdfData))
	require.Error(t, err)

	snap := u.Snapshot()
	assert.Equal(t, synth.PhaseError, snap.Phase)
	assert.Equal(t, "Die Datei überschreitet die maximale Größe.", snap.Message)
	require.NotNil(t, snap.Failure)
	assert.Equal(t, synth.FailureTooLarge, snap.Failure.Kind)
	assert.Less(t, snap.Percentage, 100)

	records, err := hist.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records, "failed uploads are not recorded")
}

func TestUploadAll(t *testing.T) {
	t.Parallel()
	srv, calls := documentService(t, 0)
	u, err := New(testConfig(t, srv.URL))
	require.NoError(t, err)
	seen := &snapshots{}
	u.Subscribe(seen.observe)

	paths := []string{
		writeFile(t, "a.pdf", pdfData),
		writeFile(t, "b.txt", []byte("nope\n")),
		writeFile(t, "c.pdf", pdfData),
	}
	var announced []int
	outcomes := u.UploadAll(context.Background(), paths, func(index, total int, path string) {
		assert.Equal(t, 3, total)
		assert.Equal(t, paths[index-1], path)
		announced = append(announced, index)
	})

	require.Len(t, outcomes, 3)
	assert.Equal(t, []int{1, 2, 3}, announced)
	assert.NoError(t, outcomes[0].Err)
	assert.Error(t, outcomes[1].Err)
	assert.NoError(t, outcomes[2].Err)
	assert.Equal(t, "c.pdf", outcomes[2].Result.Filename)
	assert.Equal(t, int32(2), calls.Load())

	// each upload restarts the timeline from zero
	var ids []string
	for _, s := range seen.all() {
		if s.Phase == synth.PhasePreparing {
			assert.Equal(t, 0, s.Percentage)
			ids = append(ids, s.TransferID)
		}
	}
	require.Len(t, ids, 2)
	assert.NotEqual(t, ids[0], ids[1])
}

func TestUploadAllDrivesTUI(t *testing.T) {
	t.Parallel()
	srv, calls := documentService(t, 0)
	u, err := New(testConfig(t, srv.URL))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tui := render.NewTUI(u.Catalog(), cancel, tea.WithInput(nil), tea.WithOutput(io.Discard))
	unsubscribe := u.Subscribe(tui.Render)
	defer unsubscribe()

	paths := []string{writeFile(t, "a.pdf", pdfData), writeFile(t, "b.pdf", pdfData)}
	var outcomes []Outcome
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer tui.Quit()
		outcomes = u.UploadAll(ctx, paths, tui.SetFile)
	}()

	require.NoError(t, tui.Run())
	<-done
	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		assert.NoError(t, o.Err)
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestUploadAllStopsWhenCancelled(t *testing.T) {
	t.Parallel()
	srv, calls := documentService(t, 0)
	u, err := New(testConfig(t, srv.URL))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outcomes := u.UploadAll(ctx, []string{writeFile(t, "a.pdf", pdfData), writeFile(t, "b.pdf", pdfData)}, nil)
	for _, o := range outcomes {
		assert.True(t, errors.Is(o.Err, context.Canceled))
	}
	assert.Equal(t, int32(0), calls.Load())
}

func TestInfo(t *testing.T) {
	t.Parallel()
	srv, _ := documentService(t, 0)
	u, err := New(testConfig(t, srv.URL))
	require.NoError(t, err)

	info, err := u.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "10MB", info.MaxFileSize)
	assert.Equal(t, []string{"application/pdf"}, info.AllowedTypes)
}

func TestNewRejectsBadSizeLimit(t *testing.T) {
	t.Parallel()
	conf := config.DefaultConfig()
	conf.MaxFileSize = "lots"
	_, err := New(conf)
	assert.Error(t, err)
}
