// Package sqlite implements ports.RunLedger on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/bft-labs/slprescale/internal/domain"
	"github.com/bft-labs/slprescale/internal/ports"
)

// CurrentSchemaVersion is the version of the ledger schema.
const CurrentSchemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
	version    INTEGER NOT NULL,
	applied_at TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id                 TEXT PRIMARY KEY,
	kind               TEXT    NOT NULL,
	input              TEXT    NOT NULL,
	output             TEXT    NOT NULL,
	input_fingerprint  TEXT    NOT NULL DEFAULT '',
	output_fingerprint TEXT    NOT NULL DEFAULT '',
	old_width          INTEGER NOT NULL,
	old_height         INTEGER NOT NULL,
	new_width          INTEGER NOT NULL,
	new_height         INTEGER NOT NULL,
	points             INTEGER NOT NULL DEFAULT 0,
	frames             INTEGER NOT NULL DEFAULT 0,
	records            INTEGER NOT NULL DEFAULT 0,
	created_at         TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_output_fingerprint ON runs(output_fingerprint);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

// timeLayout is fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const runColumns = `id, kind, input, output, input_fingerprint, output_fingerprint,
	old_width, old_height, new_width, new_height, points, frames, records, created_at`

// Ledger stores completed runs in SQLite.
type Ledger struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens or creates a ledger at path.
func Open(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping ledger: %w", err)
	}

	l := &Ledger{db: db, path: path, now: time.Now}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate ledger: %w", err)
	}
	return l, nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Path returns the database file path.
func (l *Ledger) Path() string {
	return l.path
}

func (l *Ledger) migrate() error {
	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	var version int
	err = tx.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}
	if version > CurrentSchemaVersion {
		return fmt.Errorf("ledger schema version %d is newer than supported %d", version, CurrentSchemaVersion)
	}
	if version < CurrentSchemaVersion {
		if _, err := tx.Exec(
			"INSERT INTO schema_version (version, applied_at) VALUES (?, ?)",
			CurrentSchemaVersion,
			l.now().UTC().Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}

	return tx.Commit()
}

// Record stores run, assigning an ID and timestamp when unset.
func (l *Ledger) Record(ctx context.Context, run domain.Run) (domain.Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = l.now()
	}
	run.CreatedAt = run.CreatedAt.UTC()

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Kind, run.Input, run.Output, run.InputFingerprint, run.OutputFingerprint,
		run.Scale.From.Width, run.Scale.From.Height, run.Scale.To.Width, run.Scale.To.Height,
		run.Points, run.Frames, run.Records, run.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return run, fmt.Errorf("failed to record run: %w", err)
	}
	return run, nil
}

// FindByOutput returns the newest run that produced a file with the given
// fingerprint.
func (l *Ledger) FindByOutput(ctx context.Context, fingerprint string) (*domain.Run, error) {
	if fingerprint == "" {
		return nil, nil
	}
	row := l.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE output_fingerprint = ? ORDER BY created_at DESC LIMIT 1`,
		fingerprint,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	return &run, nil
}

// Recent returns up to limit runs, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (domain.Run, error) {
	var run domain.Run
	var created string
	err := s.Scan(
		&run.ID, &run.Kind, &run.Input, &run.Output, &run.InputFingerprint, &run.OutputFingerprint,
		&run.Scale.From.Width, &run.Scale.From.Height, &run.Scale.To.Width, &run.Scale.To.Height,
		&run.Points, &run.Frames, &run.Records, &created,
	)
	if err != nil {
		return run, err
	}
	run.CreatedAt, err = time.Parse(timeLayout, created)
	if err != nil {
		return run, fmt.Errorf("parse created_at: %w", err)
	}
	return run, nil
}

var _ ports.RunLedger = (*Ledger)(nil)
