// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists run summaries to a local SQLite ledger. The
// ledger is observability only: the converter itself stays stateless
// between invocations, and callers treat recording errors as warnings.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/heic2jpg/internal/convert"
	"github.com/pdiddy/heic2jpg/pkg/types"
)

const dbFile = "history.db"

// DefaultDir returns the default ledger location under the user cache
// directory, falling back to a dot directory in the working directory
// when no cache dir is resolvable.
func DefaultDir() string {
	cache, err := os.UserCacheDir()
	if err != nil {
		return ".heic2jpg"
	}
	return filepath.Join(cache, "heic2jpg")
}

// Store manages the run-history SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the ledger database at cfg.Dir/history.db,
// creating the schema if it does not exist.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = DefaultDir()
	}
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
			duration_ms INTEGER NOT NULL,
			directory TEXT NOT NULL,
			quality INTEGER NOT NULL,
			delete_originals INTEGER NOT NULL,
			found INTEGER NOT NULL,
			converted INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			deleted INTEGER NOT NULL,
			delete_failed INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			source TEXT NOT NULL,
			status TEXT NOT NULL,
			output_path TEXT,
			strategy TEXT,
			error TEXT,
			delete_status TEXT NOT NULL,
			delete_error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_run_id ON outcomes(run_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RunRecord is one persisted run summary.
type RunRecord struct {
	ID              int64     `json:"id" yaml:"id"`
	StartedAt       time.Time `json:"started_at" yaml:"started_at"`
	DurationMS      int64     `json:"duration_ms" yaml:"duration_ms"`
	Directory       string    `json:"directory" yaml:"directory"`
	Quality         int       `json:"quality" yaml:"quality"`
	DeleteOriginals bool      `json:"delete_originals" yaml:"delete_originals"`
	Found           int       `json:"found" yaml:"found"`
	Converted       int       `json:"converted" yaml:"converted"`
	Failed          int       `json:"failed" yaml:"failed"`
	Deleted         int       `json:"deleted" yaml:"deleted"`
	DeleteFailed    int       `json:"delete_failed" yaml:"delete_failed"`
}

// Record persists one run summary and its per-file outcomes, returning
// the new run's ID.
func (s *Store) Record(ctx context.Context, summary convert.RunSummary, cfg types.ConvertConfig) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (started_at, duration_ms, directory, quality, delete_originals,
			found, converted, failed, deleted, delete_failed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.StartedAt.UTC().Format(time.RFC3339Nano),
		summary.Duration.Milliseconds(),
		summary.Directory,
		cfg.Quality,
		cfg.DeleteOriginals,
		summary.Found,
		summary.Converted,
		summary.Failed,
		summary.Deleted,
		summary.DeleteFailed,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	for _, o := range summary.Outcomes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO outcomes (run_id, source, status, output_path, strategy, error,
				delete_status, delete_error)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, o.Source, string(o.Status), o.OutputPath, o.Strategy, o.Err,
			string(o.Delete), o.DeleteErr,
		); err != nil {
			return 0, fmt.Errorf("inserting outcome for %s: %w", o.Source, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// List returns the most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, duration_ms, directory, quality, delete_originals,
			found, converted, failed, deleted, delete_failed
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var r RunRecord
		var startedAt string
		if err := rows.Scan(&r.ID, &startedAt, &r.DurationMS, &r.Directory, &r.Quality,
			&r.DeleteOriginals, &r.Found, &r.Converted, &r.Failed, &r.Deleted,
			&r.DeleteFailed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing run timestamp %q: %w", startedAt, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Outcomes returns the per-file outcomes recorded for one run.
func (s *Store) Outcomes(ctx context.Context, runID int64) ([]convert.Outcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, status, output_path, strategy, error, delete_status, delete_error
		 FROM outcomes WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []convert.Outcome
	for rows.Next() {
		var o convert.Outcome
		var status, deleteStatus string
		if err := rows.Scan(&o.Source, &status, &o.OutputPath, &o.Strategy, &o.Err,
			&deleteStatus, &o.DeleteErr); err != nil {
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}
		o.Status = types.ConversionStatus(status)
		o.Delete = types.DeleteStatus(deleteStatus)
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}
