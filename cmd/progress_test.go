package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"squeeze/internal/batch"
	"squeeze/internal/tui"
)

func sendAll(updates chan<- batch.ProgressUpdate, n int) <-chan struct{} {
	sent := make(chan struct{})
	go func() {
		defer close(sent)
		for i := 0; i < n; i++ {
			updates <- batch.ProgressUpdate{ProcessedDelta: 1}
		}
		close(updates)
	}()
	return sent
}

func TestStartProgress_DrainsAfterDisplayFails(t *testing.T) {
	updates := make(chan batch.ProgressUpdate, 4)
	var errOut bytes.Buffer
	done := startProgress(func() (tea.Model, error) {
		return nil, errors.New("open /dev/tty: no such device or address")
	}, updates, &errOut, func() { t.Error("unexpected interrupt") })

	select {
	case <-sendAll(updates, 500):
	case <-time.After(5 * time.Second):
		t.Fatal("sending progress blocked after the display stopped")
	}
	<-done

	if !strings.Contains(errOut.String(), "no such device") {
		t.Errorf("display error not reported: %q", errOut.String())
	}
}

func TestStartProgress_Interrupted(t *testing.T) {
	updates := make(chan batch.ProgressUpdate)
	interrupted := make(chan struct{})
	done := startProgress(func() (tea.Model, error) {
		m, _ := tui.NewModel(updates).Update(tea.KeyMsg{Type: tea.KeyCtrlC})
		return m, nil
	}, updates, &bytes.Buffer{}, func() { close(interrupted) })

	select {
	case <-interrupted:
	case <-time.After(5 * time.Second):
		t.Fatal("interrupt callback not called")
	}
	<-sendAll(updates, 10)
	<-done
}
