// Package render turns the synthesized progress stream into something a
// person can read: log lines, a one-line terminal bar, JSON lines, or an
// interactive TUI. Every renderer consumes synth.Snapshot values through
// a Subscribe callback.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/projecteru2/docup/synth"
)

// Renderer consumes snapshots. Render is called synchronously from the
// Synthesizer and must not block for long.
type Renderer interface {
	Render(synth.Snapshot)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(synth.Snapshot)

func (f RendererFunc) Render(s synth.Snapshot) { f(s) }

// FormatRemaining renders a remaining-time estimate rounded up to whole
// seconds, e.g. "12 s" or "1:05 min" in English.
func FormatRemaining(d time.Duration, c *synth.Catalog) string {
	if d < 0 {
		d = 0
	}
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 60 { //nolint:mnd
		return fmt.Sprintf(c.Seconds, secs)
	}
	return fmt.Sprintf(c.Minutes, secs/60, secs%60) //nolint:mnd
}

const (
	barFull  = "█"
	barEmpty = "░"
)

// progressBar draws pct (0-100) as a width-cell bar.
func progressBar(pct, width int) string {
	pct = min(max(pct, 0), synth.Complete)
	filled := pct * width / synth.Complete
	return strings.Repeat(barFull, filled) + strings.Repeat(barEmpty, width-filled)
}

var (
	labelStyle = lipgloss.NewStyle().Bold(true)
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// phaseStyle colors a snapshot by outcome.
func phaseStyle(p synth.Phase) lipgloss.Style {
	switch p {
	case synth.PhaseComplete:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	case synth.PhaseError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	}
}

// remaining returns the localized estimate suffix or "".
func remaining(s synth.Snapshot, c *synth.Catalog) string {
	if s.EstimatedRemaining == nil || s.Phase.Terminal() {
		return ""
	}
	return "~" + FormatRemaining(*s.EstimatedRemaining, c)
}
