package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestReadCSV_Missing(t *testing.T) {
	fs := afero.NewMemMapFs()
	header, records, err := ReadCSV(fs, "/nope.csv")
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if header != nil || records != nil {
		t.Fatalf("expected nothing, got %v %v", header, records)
	}
}

func TestWriteThenReadCSV(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/data/table.csv"
	header := []string{"path", "n"}
	records := [][]string{{"a/b.jpg", "1"}, {"c,d.png", "2"}}

	if err := WriteCSV(fs, path, header, records); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	gotHeader, gotRecords, err := ReadCSV(fs, path)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if strings.Join(gotHeader, "|") != "path|n" {
		t.Errorf("header = %v", gotHeader)
	}
	if len(gotRecords) != 2 || gotRecords[1][0] != "c,d.png" {
		t.Errorf("records = %v", gotRecords)
	}

	entries, err := afero.ReadDir(fs, "/data")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temp file left behind: %d entries", len(entries))
	}
}

func TestWriteCSV_Overwrites(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/t.csv"
	if err := WriteCSV(fs, path, []string{"h"}, [][]string{{"1"}, {"2"}, {"3"}}); err != nil {
		t.Fatal(err)
	}
	if err := WriteCSV(fs, path, []string{"h"}, [][]string{{"9"}}); err != nil {
		t.Fatal(err)
	}
	_, records, err := ReadCSV(fs, path)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0][0] != "9" {
		t.Errorf("records = %v", records)
	}
}

func TestWriteCSV_ReadOnlyFs(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	err := WriteCSV(fs, "/t.csv", []string{"h"}, nil)
	var storeErr *Error
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
}

func TestAppendText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.txt")
	fs := afero.NewOsFs()

	if err := AppendText(fs, path, "one\n"); err != nil {
		t.Fatal(err)
	}
	if err := AppendText(fs, path, "two\n"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "one\ntwo\n" {
		t.Errorf("log = %q", string(data))
	}
}

func TestReplace(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/src", []byte("new"), 0o644)
	_ = afero.WriteFile(fs, "/dst", []byte("old"), 0o644)

	if err := Replace(fs, "/src", "/dst"); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	data, _ := afero.ReadFile(fs, "/dst")
	if string(data) != "new" {
		t.Errorf("dst = %q", string(data))
	}
	if ok, _ := afero.Exists(fs, "/src"); ok {
		t.Error("src still exists")
	}
}
