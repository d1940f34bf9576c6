package ledger

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"squeeze/internal/store"
)

// Store is the durable backing of a Ledger.
type Store interface {
	// Load returns every stored entry; an absent store is empty, not an error.
	Load() ([]Entry, error)
	// Save replaces the stored entries with entries.
	Save(entries []Entry) error
	// Location names the store for logs and summaries.
	Location() string
	// Clear removes the durable store.
	Clear() error
}

// OpenStore picks the store for path by extension: ".db" and ".sqlite" use
// SQLite, anything else CSV.
func OpenStore(fs afero.Fs, path string) Store {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLiteStore(path)
	default:
		return NewCSVStore(fs, path)
	}
}

var csvHeader = []string{"path", "is_compressed", "compression_level"}

// CSVStore keeps the ledger as a CSV table with columns path, is_compressed
// and compression_level. Files with only a path column are read as entries
// that were compressed at an unknown quality.
type CSVStore struct {
	fs   afero.Fs
	path string
}

func NewCSVStore(fs afero.Fs, path string) *CSVStore {
	return &CSVStore{fs: fs, path: path}
}

func (s *CSVStore) Location() string { return s.path }

func (s *CSVStore) Load() ([]Entry, error) {
	header, records, err := store.ReadCSV(s.fs, s.path)
	if err != nil {
		return nil, err
	}
	if header == nil {
		return nil, nil
	}

	pathCol, compressedCol, qualityCol := -1, -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "path":
			pathCol = i
		case "is_compressed", "wascompressed", "was_compressed":
			compressedCol = i
		case "compression_level", "compressionlevel", "quality", "quality_level":
			qualityCol = i
		}
	}
	if pathCol < 0 {
		// Headerless legacy file: the first row is itself a path.
		pathCol = 0
		records = append([][]string{header}, records...)
	}

	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		if pathCol >= len(rec) || rec[pathCol] == "" {
			continue
		}
		e := Entry{Path: rec[pathCol], WasCompressed: true}
		if compressedCol >= 0 && compressedCol < len(rec) {
			if b, err := strconv.ParseBool(strings.TrimSpace(rec[compressedCol])); err == nil {
				e.WasCompressed = b
			}
		}
		if qualityCol >= 0 && qualityCol < len(rec) {
			e.QualityLevel = parseQuality(rec[qualityCol])
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *CSVStore) Save(entries []Entry) error {
	records := make([][]string, 0, len(entries))
	for _, e := range entries {
		records = append(records, []string{
			e.Path,
			strconv.FormatBool(e.WasCompressed),
			strconv.Itoa(e.QualityLevel),
		})
	}
	return store.WriteCSV(s.fs, s.path, csvHeader, records)
}

func (s *CSVStore) Clear() error {
	if err := s.fs.Remove(s.path); err != nil {
		if ok, _ := afero.Exists(s.fs, s.path); !ok {
			return nil
		}
		return &store.Error{Op: "remove", Path: s.path, Err: err}
	}
	return nil
}

// parseQuality accepts "70" as well as "70.0", which spreadsheet tools tend
// to write back.
func parseQuality(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}
