package render

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projecteru2/docup/synth"
	"github.com/projecteru2/docup/types"
)

func dur(d time.Duration) *time.Duration { return &d }

func TestFormatRemaining(t *testing.T) {
	t.Parallel()
	en, de := synth.CatalogFor("en"), synth.CatalogFor("de")
	cases := []struct {
		d      time.Duration
		en, de string
	}{
		{0, "0 s", "0 Sek."},
		{-time.Second, "0 s", "0 Sek."},
		{time.Nanosecond, "1 s", "1 Sek."},
		{12200 * time.Millisecond, "13 s", "13 Sek."},
		{59 * time.Second, "59 s", "59 Sek."},
		{60 * time.Second, "1:00 min", "1:00 Min."},
		{65 * time.Second, "1:05 min", "1:05 Min."},
		{10*time.Minute + 30*time.Second, "10:30 min", "10:30 Min."},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.en, FormatRemaining(tc.d, en), "%s", tc.d)
		assert.Equal(t, tc.de, FormatRemaining(tc.d, de), "%s", tc.d)
	}
}

func TestProgressBar(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "░░░░░░░░░░", progressBar(0, 10))
	assert.Equal(t, "███░░░░░░░", progressBar(35, 10))
	assert.Equal(t, "██████████", progressBar(100, 10))
	assert.Equal(t, "██████████", progressBar(140, 10))
}

func TestBar(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	bar := NewBar(&buf, synth.CatalogFor("en"), 10)

	bar.Render(synth.Snapshot{TransferID: "a", Phase: synth.PhaseUploading, Percentage: 20, StatusLabel: "Uploading", Message: "Uploading... 67%", EstimatedRemaining: dur(4 * time.Second)})
	bar.Render(synth.Snapshot{TransferID: "a", Phase: synth.PhaseSecurityScan, Percentage: 35, StatusLabel: "Security scan", Message: "Checking file signature..."})
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\r"))
	assert.Contains(t, out, "Uploading... 67%")
	assert.Contains(t, out, "~4 s")
	assert.Contains(t, out, " 35%")
	assert.NotContains(t, out, "\n", "line stays open while the transfer runs")

	bar.Render(synth.Snapshot{TransferID: "a", Phase: synth.PhaseComplete, Percentage: 100, StatusLabel: "Complete", Message: "Upload completed successfully", EstimatedRemaining: dur(0)})
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
	assert.NotContains(t, buf.String()[len(out):], "~0 s", "no estimate once finished")
}

func TestBarNewTransferStartsNewLine(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	bar := NewBar(&buf, synth.CatalogFor("en"), 0)

	bar.Render(synth.Snapshot{TransferID: "a", Phase: synth.PhaseSecurityScan, Percentage: 41, Message: "scanning"})
	bar.Render(synth.Snapshot{TransferID: "b", Phase: synth.PhasePreparing, Message: "Preparing upload..."})
	lines := strings.Split(buf.String(), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "scanning")
	assert.Contains(t, lines[1], "Preparing upload...")
}

func TestJSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	r := NewJSON(&buf)
	r.Render(synth.Snapshot{TransferID: "a", Phase: synth.PhaseUploading, Percentage: 5, Message: "Upload started..."})
	r.Render(synth.Snapshot{TransferID: "a", Phase: synth.PhaseComplete, Percentage: 100, Result: &types.UploadResult{Filename: "a.pdf"}})

	sc := bufio.NewScanner(&buf)
	var docs []map[string]any
	for sc.Scan() {
		var doc map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &doc))
		docs = append(docs, doc)
	}
	require.Len(t, docs, 2)
	assert.Equal(t, "uploading", docs[0]["phase"])
	assert.InDelta(t, 5, docs[0]["percentage"], 0)
	assert.Equal(t, "complete", docs[1]["phase"])
	assert.Equal(t, "a.pdf", docs[1]["result"].(map[string]any)["filename"])
}

func TestLogDeduplicates(t *testing.T) {
	t.Parallel()
	l := NewLog(context.Background(), synth.CatalogFor("en"))
	snap := synth.Snapshot{TransferID: "a", Phase: synth.PhaseSecurityScan, Percentage: 35, Message: "Checking file signature..."}
	l.Render(snap)
	snap.Percentage = 38
	l.Render(snap)
	assert.Equal(t, 35, l.last.Percentage, "percentage-only change is not logged")

	snap.Message = "Scanning for malware..."
	l.Render(snap)
	assert.Equal(t, "Scanning for malware...", l.last.Message)
}

func TestTUIModel(t *testing.T) {
	t.Parallel()
	quit := 0
	m := &tuiModel{catalog: synth.CatalogFor("en"), onQuit: func() { quit++ }, width: 10}

	m.Update(fileMsg{name: "invoice.pdf", index: 1, total: 2})
	m.Update(snapshotMsg(synth.Snapshot{TransferID: "a", Phase: synth.PhaseRecognition, Percentage: 60, StatusLabel: "Text recognition", Message: "Recognizing text...", EstimatedRemaining: dur(3 * time.Second)}))
	view := m.View()
	assert.Contains(t, view, "[1/2]")
	assert.Contains(t, view, "invoice.pdf")
	assert.Contains(t, view, "Recognizing text...")
	assert.Contains(t, view, "~3 s")

	done := synth.Snapshot{TransferID: "a", Phase: synth.PhaseComplete, Percentage: 100, Message: "Upload completed successfully"}
	m.Update(snapshotMsg(done))
	m.Update(snapshotMsg(done))
	require.Len(t, m.finished, 1)
	assert.Contains(t, m.finished[0], "invoice.pdf")

	m.Update(fileMsg{name: "b.pdf", index: 2, total: 2})
	m.Update(snapshotMsg(synth.Snapshot{TransferID: "b", Phase: synth.PhaseError, Percentage: 12, Message: "Connection error. Please check your network connection."}))
	require.Len(t, m.finished, 2)
	assert.Contains(t, m.finished[1], "Connection error")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.NotNil(t, cmd)
	assert.Equal(t, 1, quit)
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.Equal(t, 1, quit, "onQuit runs once")
}
