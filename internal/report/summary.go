package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"

	"squeeze/internal/display"
	"squeeze/internal/store"
)

// RunSummary describes one run for the append-only text log.
type RunSummary struct {
	RunID          string
	Time           time.Time
	InputPath      string
	OutputPath     string
	Overwrite      bool
	OriginalSize   int64
	CompressedSize int64
	Compressed     int
	Failed         int
	Quality        int
}

const separator = "--------------------------------------------------"

// Text renders the summary as the block appended to the run log.
func (s RunSummary) Text() string {
	output := s.OutputPath
	if s.Overwrite {
		output = s.InputPath
	}

	var b strings.Builder
	fmt.Fprintln(&b, separator)
	fmt.Fprintf(&b, "Date: %s\n", s.Time.Format("2006-01-02 15:04:05"))
	if s.RunID != "" {
		fmt.Fprintf(&b, "Run: %s\n", s.RunID)
	}
	fmt.Fprintf(&b, "Input folder: %s\n", s.InputPath)
	fmt.Fprintf(&b, "Output folder: %s\n", output)
	fmt.Fprintf(&b, "Overwrite: %t\n", s.Overwrite)
	fmt.Fprintf(&b, "Original folder size: %s\n", display.FormatSize(s.OriginalSize))
	fmt.Fprintf(&b, "Compressed folder size: %s\n", display.FormatSize(s.CompressedSize))
	fmt.Fprintf(&b, "Files compressed: %d\n", s.Compressed)
	fmt.Fprintf(&b, "Files not compressed: %d\n", s.Failed)
	fmt.Fprintf(&b, "Compression level: %d\n", s.Quality)
	return b.String()
}

// AppendSummary appends s to the text log at path.
func AppendSummary(fs afero.Fs, path string, s RunSummary) error {
	return store.AppendText(fs, path, s.Text())
}
