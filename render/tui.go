package render

import (
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/projecteru2/docup/synth"
)

// TUI is an interactive bubbletea view of a batch of uploads. Run blocks
// until Quit is called or the user presses q / ctrl+c.
type TUI struct {
	program *tea.Program
}

// NewTUI creates the program. onQuit is called once when the user asks to
// abort; it should cancel the uploads.
func NewTUI(catalog *synth.Catalog, onQuit func(), opts ...tea.ProgramOption) *TUI {
	m := &tuiModel{catalog: catalog, onQuit: onQuit, width: DefaultBarWidth}
	return &TUI{program: tea.NewProgram(m, opts...)}
}

// Run starts the program and blocks until it exits.
func (t *TUI) Run() error {
	_, err := t.program.Run()
	return err
}

// SetFile announces the next file of the batch. It matches the per-file
// callback of upload.Uploader.UploadAll.
func (t *TUI) SetFile(index, total int, path string) {
	t.program.Send(fileMsg{name: filepath.Base(path), index: index, total: total})
}

func (t *TUI) Render(s synth.Snapshot) {
	t.program.Send(snapshotMsg(s))
}

// Quit stops the program after the last frame is drawn.
func (t *TUI) Quit() {
	t.program.Send(doneMsg{})
}

type (
	snapshotMsg synth.Snapshot
	fileMsg     struct {
		name         string
		index, total int
	}
	doneMsg struct{}
)

type tuiModel struct {
	catalog *synth.Catalog
	onQuit  func()
	width   int

	file         string
	index, total int
	snap         synth.Snapshot
	finished     []string
	finishedID   string
	quitting     bool
}

func (m *tuiModel) Init() tea.Cmd { return nil }

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if !m.quitting && m.onQuit != nil {
				m.onQuit()
			}
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = min(max(msg.Width-40, 10), 60) //nolint:mnd

	case fileMsg:
		m.file, m.index, m.total = msg.name, msg.index, msg.total
		m.snap = synth.Snapshot{}

	case snapshotMsg:
		m.snap = synth.Snapshot(msg)
		if m.snap.Phase.Terminal() && m.snap.TransferID != m.finishedID {
			m.finishedID = m.snap.TransferID
			m.finished = append(m.finished, m.summary())
		}

	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *tuiModel) View() string {
	var b strings.Builder
	for _, line := range m.finished {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if m.quitting || m.file == "" || m.snap.Phase.Terminal() {
		return b.String()
	}

	style := phaseStyle(m.snap.Phase)
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render(m.counter()), m.file)
	fmt.Fprintf(&b, "%s %s %3d%%\n",
		labelStyle.Inherit(style).Render(fmt.Sprintf("%-16s", m.snap.StatusLabel)),
		style.Render(progressBar(m.snap.Percentage, m.width)),
		m.snap.Percentage)
	b.WriteString(m.snap.Message)
	if eta := remaining(m.snap, m.catalog); eta != "" {
		b.WriteString("  " + hintStyle.Render(eta))
	}
	b.WriteString("\n" + hintStyle.Render("q: cancel") + "\n")
	return b.String()
}

func (m *tuiModel) counter() string {
	if m.total > 1 {
		return fmt.Sprintf("[%d/%d]", m.index, m.total)
	}
	return "›"
}

func (m *tuiModel) summary() string {
	mark := phaseStyle(m.snap.Phase).Render("✓")
	if m.snap.Phase == synth.PhaseError {
		mark = phaseStyle(m.snap.Phase).Render("✗")
	}
	return fmt.Sprintf("%s %s %s: %s", mark, m.counter(), m.file, m.snap.Message)
}
