// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps a SQLite journal of every save attempt so users
// can see when a document was written and which writes failed.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pandoc-live/pkg/types"
)

const dbFile = "history.db"

// timeFormat is fixed width so stored timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one journaled save attempt.
type Entry struct {
	ID         string    `json:"id" yaml:"id"`
	SessionID  string    `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	Path       string    `json:"path" yaml:"path"`
	Bytes      int       `json:"bytes" yaml:"bytes"`
	Backups    int       `json:"backups" yaml:"backups"`
	Coalesced  int       `json:"coalesced" yaml:"coalesced"`
	EnqueuedAt time.Time `json:"enqueued_at" yaml:"enqueued_at"`
	WrittenAt  time.Time `json:"written_at" yaml:"written_at"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// OK reports whether the journaled write succeeded.
func (e Entry) OK() bool { return e.Error == "" }

// Store manages the history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the journal at dataDir/history.db and creates the
// schema if it does not exist.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Path returns the journal location for dataDir.
func Path(dataDir string) string {
	return filepath.Join(dataDir, dbFile)
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS saves (
			id TEXT PRIMARY KEY,
			session_id TEXT,
			path TEXT NOT NULL,
			bytes INTEGER NOT NULL,
			backups INTEGER NOT NULL,
			coalesced INTEGER NOT NULL,
			enqueued_at TEXT NOT NULL,
			written_at TEXT NOT NULL,
			error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_saves_path ON saves(path, written_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record journals one save result and returns its id.
func (s *Store) Record(ctx context.Context, res types.SaveResult, sessionID string) (string, error) {
	id := uuid.NewString()
	var errText sql.NullString
	if res.Err != nil {
		errText = sql.NullString{String: res.Err.Error(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO saves (id, session_id, path, bytes, backups, coalesced, enqueued_at, written_at, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, sessionID, res.TargetPath, res.Bytes, res.Backups, res.Coalesced,
		res.EnqueuedAt.UTC().Format(timeFormat),
		res.WrittenAt.UTC().Format(timeFormat),
		errText,
	)
	if err != nil {
		return "", fmt.Errorf("recording save of %s: %w", res.TargetPath, err)
	}
	return id, nil
}

// List returns the most recent entries for path, newest first. An empty
// path lists every file. A limit of zero or less means no limit.
func (s *Store) List(ctx context.Context, path string, limit int) ([]Entry, error) {
	query := `SELECT id, session_id, path, bytes, backups, coalesced, enqueued_at, written_at, error FROM saves`
	var args []any
	if path != "" {
		query += ` WHERE path = ?`
		args = append(args, path)
	}
	query += ` ORDER BY written_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                  Entry
			sessionID, errText sql.NullString
			enqueued, written  string
		)
		if err := rows.Scan(&e.ID, &sessionID, &e.Path, &e.Bytes, &e.Backups, &e.Coalesced, &enqueued, &written, &errText); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		e.SessionID = sessionID.String
		e.Error = errText.String
		if e.EnqueuedAt, err = time.Parse(timeFormat, enqueued); err != nil {
			return nil, fmt.Errorf("parsing enqueued_at of %s: %w", e.ID, err)
		}
		if e.WrittenAt, err = time.Parse(timeFormat, written); err != nil {
			return nil, fmt.Errorf("parsing written_at of %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history rows: %w", err)
	}
	return entries, nil
}

// Prune keeps the newest keep entries per path and deletes the rest. It
// returns the number of deleted rows.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM saves WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (PARTITION BY path ORDER BY written_at DESC, rowid DESC) AS n
				FROM saves
			) WHERE n > ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned rows: %w", err)
	}
	return n, nil
}
