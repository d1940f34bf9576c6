// Package report accumulates per-file outcome rows during a run, persists
// them as a timestamped CSV, and appends a readable run summary to a text
// log.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"squeeze/internal/compressor"
	"squeeze/internal/display"
	"squeeze/internal/store"
)

// Row is one processed file as it appears in the report.
type Row struct {
	InputFolder    string
	FileName       string
	OriginalSize   string
	CompressedSize string
	StorageSaved   string
	PercentSaved   string
	// OutputPath is empty when the file was not compressed.
	OutputPath string
}

var header = []string{
	"input_folder", "file_name", "original_size", "compressed_size",
	"storage_saved", "percent", "output_path",
}

// TimestampLayout names report files and stamps summaries.
const TimestampLayout = "2006-01-02_15-04-05"

// Report collects rows for one run. It is owned by the coordinating
// goroutine and not safe for concurrent use.
type Report struct {
	rows []Row
}

func New() *Report {
	return &Report{}
}

// notCompressedPercent is the percent column of a file that was not
// compressed.
const notCompressedPercent = "0"

// RowFromOutcome renders an outcome as a report row.
func RowFromOutcome(inputFolder string, o compressor.Outcome) Row {
	row := Row{
		InputFolder:    inputFolder,
		FileName:       o.FileName,
		OriginalSize:   display.FormatSize(o.OriginalSize),
		CompressedSize: display.FormatSize(o.CompressedSize),
		StorageSaved:   display.FormatSize(o.SavedBytes),
		PercentSaved:   notCompressedPercent,
		OutputPath:     o.OutputPath,
	}
	if o.Succeeded {
		row.PercentSaved = display.FormatPercent(o.Percent)
	}
	return row
}

// Add records the outcome of one file.
func (r *Report) Add(inputFolder string, o compressor.Outcome) {
	r.rows = append(r.rows, RowFromOutcome(inputFolder, o))
}

// Rows returns a copy of the collected rows.
func (r *Report) Rows() []Row {
	out := make([]Row, len(r.rows))
	copy(out, r.rows)
	return out
}

func (r *Report) Len() int { return len(r.rows) }

// FileName returns the report file name for a run started at t.
func FileName(t time.Time) string {
	return "compression_report_" + t.Format(TimestampLayout) + ".csv"
}

// Save writes the rows to dir/compression_report_<timestamp>.csv and
// returns the file's path. An existing report from the same second is kept;
// the new one gets a _2, _3, ... suffix.
func (r *Report) Save(fs afero.Fs, dir string, t time.Time) (string, error) {
	path, err := freeName(fs, dir, t)
	if err != nil {
		return "", err
	}
	records := make([][]string, 0, len(r.rows))
	for _, row := range r.rows {
		records = append(records, []string{
			row.InputFolder, row.FileName, row.OriginalSize, row.CompressedSize,
			row.StorageSaved, row.PercentSaved, row.OutputPath,
		})
	}
	if err := store.WriteCSV(fs, path, header, records); err != nil {
		return "", err
	}
	return path, nil
}

func freeName(fs afero.Fs, dir string, t time.Time) (string, error) {
	name := FileName(t)
	path := filepath.Join(dir, name)
	stem := strings.TrimSuffix(name, ".csv")
	for n := 2; ; n++ {
		exists, err := afero.Exists(fs, path)
		if err != nil {
			return "", &store.Error{Op: "stat", Path: path, Err: err}
		}
		if !exists {
			return path, nil
		}
		path = filepath.Join(dir, fmt.Sprintf("%s_%d.csv", stem, n))
	}
}

// FolderSize sums the sizes of every regular file below dir. A missing dir
// has size zero.
func FolderSize(fs afero.Fs, dir string) (int64, error) {
	if ok, err := afero.DirExists(fs, dir); err != nil || !ok {
		return 0, err
	}

	var total int64
	err := afero.Walk(fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() && !strings.HasPrefix(info.Name(), ".squeeze-") {
			total += info.Size()
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("measure %s: %w", dir, err)
	}
	return total, nil
}
