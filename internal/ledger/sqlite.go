package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"squeeze/internal/store"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS ledger (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL UNIQUE,
	is_compressed INTEGER NOT NULL,
	compression_level INTEGER NOT NULL
);`

// SQLiteStore keeps the ledger in a SQLite database. It always talks to the
// OS filesystem.
type SQLiteStore struct {
	path string
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Location() string { return s.path }

func (s *SQLiteStore) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}
	return db, nil
}

func (s *SQLiteStore) Load() ([]Entry, error) {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	db, err := s.open()
	if err != nil {
		return nil, &store.Error{Op: "open", Path: s.path, Err: err}
	}
	defer db.Close()

	rows, err := db.Query("SELECT path, is_compressed, compression_level FROM ledger ORDER BY seq")
	if err != nil {
		return nil, &store.Error{Op: "query", Path: s.path, Err: err}
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Path, &e.WasCompressed, &e.QualityLevel); err != nil {
			return nil, &store.Error{Op: "scan", Path: s.path, Err: err}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &store.Error{Op: "query", Path: s.path, Err: err}
	}
	return entries, nil
}

// Save replaces the table contents inside one transaction.
func (s *SQLiteStore) Save(entries []Entry) error {
	db, err := s.open()
	if err != nil {
		return &store.Error{Op: "open", Path: s.path, Err: err}
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return &store.Error{Op: "begin", Path: s.path, Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM ledger"); err != nil {
		return &store.Error{Op: "truncate", Path: s.path, Err: err}
	}

	stmt, err := tx.Prepare("INSERT INTO ledger (path, is_compressed, compression_level) VALUES (?, ?, ?)")
	if err != nil {
		return &store.Error{Op: "prepare", Path: s.path, Err: err}
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(e.Path, e.WasCompressed, e.QualityLevel); err != nil {
			return &store.Error{Op: "insert", Path: s.path, Err: fmt.Errorf("%s: %w", e.Path, err)}
		}
	}

	if err := tx.Commit(); err != nil {
		return &store.Error{Op: "commit", Path: s.path, Err: err}
	}
	return nil
}

func (s *SQLiteStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &store.Error{Op: "remove", Path: s.path, Err: err}
	}
	return nil
}
