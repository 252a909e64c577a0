// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists conversion run outcomes in a SQLite ledger so
// past batches and their artifacts can be inspected later.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/comic-forge/pkg/types"
)

const dbFile = "history.db"

// Record is one completed (or canceled/failed) conversion run.
type Record struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	State      string
	Format     types.Format
	Merged     bool
	Sources    int
	Converted  int
	Failed     int
	Artifacts  []string
}

// Store manages the run-history SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database under dir, creating the
// schema when missing.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}
	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			state TEXT NOT NULL,
			format TEXT NOT NULL,
			merged INTEGER NOT NULL,
			sources INTEGER NOT NULL,
			converted INTEGER NOT NULL,
			failed INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS artifacts (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			position INTEGER NOT NULL,
			path TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Record inserts one run and its artifacts, returning the assigned run ID.
func (s *Store) Record(r Record) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO runs (started_at, finished_at, state, format, merged, sources, converted, failed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.StartedAt.UTC().Format(time.RFC3339),
		r.FinishedAt.UTC().Format(time.RFC3339),
		r.State, string(r.Format), r.Merged, r.Sources, r.Converted, r.Failed,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}
	for i, path := range r.Artifacts {
		if _, err := tx.Exec(
			`INSERT INTO artifacts (run_id, position, path) VALUES (?, ?, ?)`, id, i, path,
		); err != nil {
			return 0, fmt.Errorf("inserting artifact: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return id, nil
}

// List returns the most recent runs, newest first, with their artifacts.
func (s *Store) List(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, started_at, finished_at, state, format, merged, sources, converted, failed
		 FROM runs ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var started, finished, format string
		if err := rows.Scan(&r.ID, &started, &finished, &r.State, &format,
			&r.Merged, &r.Sources, &r.Converted, &r.Failed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		r.Format = types.Format(format)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading runs: %w", err)
	}

	for i := range records {
		artifacts, err := s.artifactsFor(records[i].ID)
		if err != nil {
			return nil, err
		}
		records[i].Artifacts = artifacts
	}
	return records, nil
}

func (s *Store) artifactsFor(runID int64) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT path FROM artifacts WHERE run_id = ? ORDER BY position`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying artifacts: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scanning artifact: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}
