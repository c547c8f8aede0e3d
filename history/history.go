// Package history persists executed command lines to a SQLite database,
// per §6 of the shell's execution model.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `CREATE TABLE IF NOT EXISTS history (
	timestamp TEXT PRIMARY KEY,
	command   TEXT NOT NULL
)`

// Store is a SQLite-backed command history.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores command against the current time, at nanosecond
// resolution so that two commands entered within the same wall-clock
// second don't collide on the timestamp primary key. The timestamp is
// written in UTC with all nine fraction digits, so that its text sorts in
// time order.
func (s *Store) Record(command string) error {
	ts := time.Now().UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
	_, err := s.db.Exec(`INSERT INTO history (timestamp, command) VALUES (?, ?)`, ts, command)
	if err != nil {
		return fmt.Errorf("history: record: %w", err)
	}
	return nil
}

// Entry is one recorded command line.
type Entry struct {
	Timestamp time.Time
	Command   string
}

// Recent returns the n most recently recorded entries, oldest first (the
// order a line editor wants to walk with the up arrow).
func (s *Store) Recent(n int) ([]Entry, error) {
	rows, err := s.db.Query(`SELECT timestamp, command FROM history ORDER BY timestamp DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var tsRaw, cmd string
		if err := rows.Scan(&tsRaw, &cmd); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Timestamp: ts, Command: cmd})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// All returns every recorded entry, oldest first, for a `history` listing.
func (s *Store) All() ([]Entry, error) {
	rows, err := s.db.Query(`SELECT timestamp, command FROM history ORDER BY timestamp ASC`)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var tsRaw, cmd string
		if err := rows.Scan(&tsRaw, &cmd); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Timestamp: ts, Command: cmd})
	}
	return entries, rows.Err()
}
