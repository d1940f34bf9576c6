package cmd

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"squeeze/internal/batch"
	"squeeze/internal/logging"
	"squeeze/internal/tui"
)

// startProgress runs the progress display in the background. Whatever way
// the display ends, the goroutine keeps receiving from updates until it is
// closed so the scheduler never blocks on a full channel. The returned
// channel closes once updates has been drained.
func startProgress(run func() (tea.Model, error), updates <-chan batch.ProgressUpdate, errOut io.Writer, onInterrupt func()) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		final, err := run()
		if err != nil {
			logging.Get().Error().Err(err).Msg("progress display stopped")
			fmt.Fprintf(errOut, "progress display stopped: %v\n", err)
		} else if m, ok := final.(tui.Model); ok && m.Interrupted() {
			onInterrupt()
		}
		for range updates {
		}
	}()
	return done
}
