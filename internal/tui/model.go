package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"squeeze/internal/batch"
	"squeeze/internal/display"
)

// Model renders live progress of a run from a stream of ProgressUpdates.
// The program quits when the stream is closed.
type Model struct {
	updates     <-chan batch.ProgressUpdate
	bar         progress.Model
	started     time.Time
	width       int
	total       int
	processed   int
	compressed  int
	failed      int
	bytesSaved  int64
	batch       int
	batches     int
	quitting    bool
	interrupted bool
}

type doneMsg struct{}

type updateMsg batch.ProgressUpdate

func NewModel(updates <-chan batch.ProgressUpdate) Model {
	bar := progress.New(progress.WithSolidFill(string(ColorAccent)), progress.WithoutPercentage())
	bar.Width = 40
	return Model{updates: updates, bar: bar, started: time.Now()}
}

func (m Model) Init() tea.Cmd {
	return listenForUpdates(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg:
		m.total += msg.TotalDelta
		m.processed += msg.ProcessedDelta
		m.compressed += msg.CompressedDelta
		m.failed += msg.FailedDelta
		m.bytesSaved += msg.BytesSavedDelta
		if msg.Batch > 0 {
			m.batch = msg.Batch
			m.batches = msg.Batches
		}
		return m, listenForUpdates(m.updates)
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.interrupted = true
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = barWidth(msg.Width)
		return m, nil
	default:
		return m, nil
	}
}

// Interrupted reports whether the user pressed ctrl+c.
func (m Model) Interrupted() bool { return m.interrupted }

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	elapsed := time.Since(m.started).Round(time.Millisecond)
	lines := []string{
		titleStyle.Render("squeeze"),
		labelStyle.Render(fmt.Sprintf("Files: %d/%d", m.processed, m.total)) +
			dimStyle.Render(fmt.Sprintf("  batch %d/%d", m.batch, m.batches)),
		labelStyle.Render(fmt.Sprintf("Compressed: %d", m.compressed)) +
			dimStyle.Render(fmt.Sprintf("  not compressed: %d", m.failed)),
		labelStyle.Render("Saved: " + display.FormatSize(m.bytesSaved)),
		dimStyle.Render(fmt.Sprintf("Elapsed: %s", elapsed)),
		m.bar.ViewAs(m.ratio()),
	}
	return strings.Join(lines, "\n")
}

func (m Model) ratio() float64 {
	if m.total == 0 {
		return 0
	}
	r := float64(m.processed) / float64(m.total)
	if r > 1 {
		return 1
	}
	return r
}

func listenForUpdates(updates <-chan batch.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return doneMsg{}
		}
		return updateMsg(update)
	}
}

func barWidth(termWidth int) int {
	w := termWidth - 10
	if w > 60 {
		w = 60
	}
	if w < 20 {
		w = 20
	}
	return w
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	labelStyle = lipgloss.NewStyle().Foreground(ColorInk)
	dimStyle   = lipgloss.NewStyle().Foreground(ColorDim)
)
