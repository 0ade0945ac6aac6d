// Package statecache keeps the last reconciled session on disk so a
// restarted process can show the prior state before the first fetch
// completes. The cache is advisory: the next successful resync overwrites
// it, and losing it costs nothing but a blank first paint.
package statecache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/claude/liveset/internal/models"
)

// DB is the SQLite-backed snapshot cache.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the cache database at dir/liveset.db.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "liveset.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS last_session (
		id         INTEGER PRIMARY KEY CHECK (id = 1),
		session_id TEXT NOT NULL,
		payload    TEXT NOT NULL,
		saved_at   TIMESTAMP NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache table: %w", err)
	}

	return &DB{db: db}, nil
}

// Save replaces the cached snapshot with the given session.
func (c *DB) Save(s *models.Session) error {
	if s == nil {
		return c.Clear()
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session snapshot: %w", err)
	}
	_, err = c.db.Exec(
		`INSERT OR REPLACE INTO last_session (id, session_id, payload, saved_at) VALUES (1, ?, ?, ?)`,
		s.ID, string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving session snapshot: %w", err)
	}
	return nil
}

// Load returns the cached snapshot, or nil when the cache is empty.
func (c *DB) Load() (*models.Session, error) {
	var payload string
	err := c.db.QueryRow(`SELECT payload FROM last_session WHERE id = 1`).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session snapshot: %w", err)
	}

	var s models.Session
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return nil, fmt.Errorf("decoding session snapshot: %w", err)
	}
	return &s, nil
}

// Clear drops the cached snapshot.
func (c *DB) Clear() error {
	_, err := c.db.Exec(`DELETE FROM last_session`)
	if err != nil {
		return fmt.Errorf("clearing session snapshot: %w", err)
	}
	return nil
}

// Close closes the cache database.
func (c *DB) Close() error {
	return c.db.Close()
}
