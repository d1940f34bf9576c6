// Package store holds the durable-file plumbing shared by the ledger and the
// run report: CSV tables written through a temp file and renamed into place,
// and an append-only text log.
package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Error reports a failed read or write of a durable store. Write failures
// are fatal for a run; a missing store on read is not an Error.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ReadCSV returns the header and records of a CSV file. A missing file
// yields (nil, nil, nil).
func ReadCSV(fs afero.Fs, path string) ([]string, [][]string, error) {
	f, err := fs.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, &Error{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, nil
		}
		return nil, nil, &Error{Op: "read", Path: path, Err: err}
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, &Error{Op: "read", Path: path, Err: err}
	}
	return header, records, nil
}

// WriteCSV fully replaces path with header and records. The table is written
// to a temp file next to path and renamed over it, so readers never observe a
// half-written table.
func WriteCSV(fs afero.Fs, path string, header []string, records [][]string) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return &Error{Op: "mkdir", Path: dir, Err: err}
	}

	tmp, err := afero.TempFile(fs, dir, ".squeeze-*.tmp")
	if err != nil {
		return &Error{Op: "create", Path: path, Err: err}
	}
	tmpName := tmp.Name()
	defer fs.Remove(tmpName)

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		_ = tmp.Close()
		return &Error{Op: "write", Path: path, Err: err}
	}
	if err := w.WriteAll(records); err != nil {
		_ = tmp.Close()
		return &Error{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return &Error{Op: "sync", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &Error{Op: "close", Path: path, Err: err}
	}

	if err := Replace(fs, tmpName, path); err != nil {
		return &Error{Op: "rename", Path: path, Err: err}
	}
	return nil
}

// AppendText appends text to path, creating it when absent.
func AppendText(fs afero.Fs, path string, text string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return &Error{Op: "mkdir", Path: dir, Err: err}
		}
	}

	f, err := fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &Error{Op: "open", Path: path, Err: err}
	}
	if _, err := io.WriteString(f, text); err != nil {
		_ = f.Close()
		return &Error{Op: "append", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &Error{Op: "close", Path: path, Err: err}
	}
	return nil
}

// Replace moves src over dst. Some platforms refuse to rename onto an
// existing file, so dst is removed and the rename retried once.
func Replace(fs afero.Fs, src, dst string) error {
	if err := fs.Rename(src, dst); err == nil {
		return nil
	}
	if err := fs.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return fs.Rename(src, dst)
}
