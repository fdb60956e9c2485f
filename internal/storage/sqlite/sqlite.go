package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/michaelbrown/evalbox/internal/storage"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements storage.Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path and runs migrations.
// Use ":memory:" for an in-memory database (useful for testing).
func Open(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) CreateRun(ctx context.Context, r *storage.Run) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, source, code, output, strace, interpreter_mode, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Source, r.Code, r.Output, boolToInt(r.Strace), boolToInt(r.InterpreterMode),
		r.Duration.Milliseconds(), r.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*storage.Run, error) {
	// Try exact match first, then prefix match
	run, err := s.getRunExact(ctx, id)
	if err == nil {
		return run, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, code, output, strace, interpreter_mode, duration_ms, created_at
		FROM runs WHERE id LIKE ? || '%'`, id)
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}
	defer rows.Close()

	var matches []*storage.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, run)
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("run not found: %s", id)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous run prefix %q matches %d runs", id, len(matches))
	}
}

func (s *SQLiteStore) getRunExact(ctx context.Context, id string) (*storage.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source, code, output, strace, interpreter_mode, duration_ms, created_at
		FROM runs WHERE id = ?`, id)
	return scanRunFromScanner(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, opts storage.RunListOptions) ([]storage.Run, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, source, code, output, strace, interpreter_mode, duration_ms, created_at FROM runs`
	var args []any

	if opts.Source != "" {
		query += ` WHERE source = ?`
		args = append(args, string(opts.Source))
	}

	query += ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	args = append(args, limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []storage.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	// Resolve prefix first
	run, err := s.GetRun(ctx, id)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, run.ID)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Scanner interface to work with both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanRunFromScanner(s scanner) (*storage.Run, error) {
	var run storage.Run
	var strace, interp int
	var durationMs int64
	var createdAt string
	err := s.Scan(&run.ID, &run.Source, &run.Code, &run.Output,
		&strace, &interp, &durationMs, &createdAt)
	if err != nil {
		return nil, err
	}
	run.Strace = strace != 0
	run.InterpreterMode = interp != 0
	run.Duration = time.Duration(durationMs) * time.Millisecond
	run.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &run, nil
}

func scanRun(rows *sql.Rows) (*storage.Run, error) {
	return scanRunFromScanner(rows)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
