package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/projecteru2/docup/synth"
)

// DefaultBarWidth is the number of cells of the bar itself.
const DefaultBarWidth = 30

// Bar redraws a single terminal line with \r on every snapshot and ends
// the line when the transfer reaches a terminal phase.
type Bar struct {
	w       io.Writer
	width   int
	catalog *synth.Catalog

	mu      sync.Mutex
	id      string
	lastLen int
	open    bool
}

// NewBar creates a Bar writing to w.
func NewBar(w io.Writer, catalog *synth.Catalog, width int) *Bar {
	if width <= 0 {
		width = DefaultBarWidth
	}
	return &Bar{w: w, width: width, catalog: catalog}
}

func (b *Bar) Render(s synth.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.open && s.TransferID != b.id {
		_, _ = fmt.Fprintln(b.w)
		b.lastLen = 0
	}
	b.id = s.TransferID

	line := b.line(s)
	width := lipgloss.Width(line)
	pad := ""
	if width < b.lastLen {
		pad = strings.Repeat(" ", b.lastLen-width)
	}
	b.lastLen = width

	if s.Phase.Terminal() {
		_, _ = fmt.Fprintf(b.w, "\r%s%s\n", line, pad)
		b.open, b.lastLen = false, 0
		return
	}
	_, _ = fmt.Fprintf(b.w, "\r%s%s", line, pad)
	b.open = true
}

func (b *Bar) line(s synth.Snapshot) string {
	style := phaseStyle(s.Phase)
	parts := []string{
		labelStyle.Inherit(style).Render(fmt.Sprintf("%-16s", s.StatusLabel)),
		style.Render(progressBar(s.Percentage, b.width)),
		fmt.Sprintf("%3d%%", s.Percentage),
		s.Message,
	}
	if eta := remaining(s, b.catalog); eta != "" {
		parts = append(parts, hintStyle.Render(eta))
	}
	return strings.Join(parts, " ")
}
