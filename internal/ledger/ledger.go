// Package ledger tracks which files earlier runs already processed so they
// are skipped on the next run.
//
// A Ledger is loaded once when a run starts, appended to in memory by the
// coordinating goroutine, and flushed once at the end of the run. Save fully
// overwrites the durable store; a crash before Save loses the run's progress.
package ledger

import (
	"path/filepath"
	"strings"
)

// Entry records one processed file.
type Entry struct {
	Path          string
	WasCompressed bool
	QualityLevel  int
}

// Ledger is an insertion-ordered set of entries keyed by path. It is not
// safe for concurrent use.
type Ledger struct {
	store   Store
	entries []Entry
	index   map[string]int
	dirty   bool
}

// New returns an empty ledger bound to store. store may be nil for a ledger
// that is never saved.
func New(store Store) *Ledger {
	return &Ledger{store: store, index: make(map[string]int)}
}

// Load reads the durable store. An absent store yields an empty ledger.
// Duplicate paths in the store collapse to their first occurrence.
func Load(store Store) (*Ledger, error) {
	l := New(store)
	entries, err := store.Load()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		e.Path = NormalizePath(e.Path)
		if _, ok := l.index[e.Path]; ok {
			continue
		}
		l.index[e.Path] = len(l.entries)
		l.entries = append(l.entries, e)
	}
	return l, nil
}

// RecordProcessed appends an entry for path. Recording a path that is
// already present replaces its entry in place rather than adding a duplicate;
// that only happens when failed files are retried.
func (l *Ledger) RecordProcessed(path string, succeeded bool, quality int) {
	path = NormalizePath(path)
	entry := Entry{Path: path, WasCompressed: succeeded, QualityLevel: quality}
	l.dirty = true
	if i, ok := l.index[path]; ok {
		l.entries[i] = entry
		return
	}
	l.index[path] = len(l.entries)
	l.entries = append(l.entries, entry)
}

// Contains reports whether path was processed by any run.
func (l *Ledger) Contains(path string) bool {
	_, ok := l.index[NormalizePath(path)]
	return ok
}

// Lookup returns the entry for path.
func (l *Ledger) Lookup(path string) (Entry, bool) {
	i, ok := l.index[NormalizePath(path)]
	if !ok {
		return Entry{}, false
	}
	return l.entries[i], true
}

// Entries returns a copy of the entries in insertion order.
func (l *Ledger) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Ledger) Len() int { return len(l.entries) }

// Dirty reports whether entries were recorded since Load.
func (l *Ledger) Dirty() bool { return l.dirty }

// Save writes every entry to the store, replacing its previous contents.
func (l *Ledger) Save() error {
	if l.store == nil {
		return nil
	}
	if err := l.store.Save(l.entries); err != nil {
		return err
	}
	l.dirty = false
	return nil
}

// NormalizePath converts path separators to forward slashes so ledgers
// written on one platform match paths discovered on another.
func NormalizePath(path string) string {
	return strings.ReplaceAll(filepath.ToSlash(path), `\`, "/")
}
