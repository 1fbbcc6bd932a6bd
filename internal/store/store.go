// Package store keeps run history in SQLite and per-step JSON snapshots on
// disk.
package store

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNoRuns is returned by LatestRun when nothing was recorded for a user
var ErrNoRuns = errors.New("no recorded runs")

// Store handles all database operations
type Store struct {
	db *sql.DB
}

// New creates a new Store with SQLite backend
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		state TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		generated_at DATETIME,
		sentiment INTEGER NOT NULL DEFAULT 0,
		tone TEXT,
		comments INTEGER NOT NULL DEFAULT 0,
		submissions INTEGER NOT NULL DEFAULT 0,
		output_path TEXT,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_username ON runs(username, started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// RecordRun inserts or updates a run
func (s *Store) RecordRun(r *Run) error {
	var generatedAt any
	if !r.GeneratedAt.IsZero() {
		generatedAt = r.GeneratedAt.UTC()
	}

	_, err := s.db.Exec(`
		INSERT INTO runs (id, username, state, started_at, generated_at,
			sentiment, tone, comments, submissions, output_path, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			generated_at = excluded.generated_at,
			sentiment = excluded.sentiment,
			tone = excluded.tone,
			comments = excluded.comments,
			submissions = excluded.submissions,
			output_path = excluded.output_path,
			error = excluded.error
	`, r.ID, r.Username, r.State, r.StartedAt.UTC(), generatedAt,
		r.Sentiment, r.Tone, r.Comments, r.Submissions, r.OutputPath, r.Error)

	return err
}

// ListRuns returns the most recent runs, newest first. An empty username
// lists every user.
func (s *Store) ListRuns(username string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT id, username, state, started_at, generated_at,
			sentiment, tone, comments, submissions, output_path, error
		FROM runs
		WHERE ? = '' OR username = ?
		ORDER BY started_at DESC
		LIMIT ?
	`, username, username, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRuns(rows)
}

// LatestRun returns the newest run for username.
func (s *Store) LatestRun(username string) (*Run, error) {
	runs, err := s.ListRuns(username, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNoRuns
	}
	return &runs[0], nil
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		var r Run
		var generatedAt sql.NullTime
		var tone, outputPath, errText sql.NullString

		err := rows.Scan(
			&r.ID, &r.Username, &r.State, &r.StartedAt, &generatedAt,
			&r.Sentiment, &tone, &r.Comments, &r.Submissions, &outputPath, &errText,
		)
		if err != nil {
			return nil, err
		}

		if generatedAt.Valid {
			r.GeneratedAt = generatedAt.Time.UTC()
		}
		r.StartedAt = r.StartedAt.UTC()
		r.Tone = tone.String
		r.OutputPath = outputPath.String
		r.Error = errText.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
