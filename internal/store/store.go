// Package store keeps the render history in SQLite.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

// ErrRunNotFound is returned when finishing a run that was never recorded.
var ErrRunNotFound = errors.New("run not found")

// Run statuses.
const (
	StatusRunning   = "running"
	StatusOK        = "ok"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Run is one render invocation.
type Run struct {
	ID          string        `json:"id"`
	Composition string        `json:"composition"`
	From        int           `json:"from"`
	To          int           `json:"to"`
	Workers     int           `json:"workers"`
	Output      string        `json:"output,omitempty"`
	Status      string        `json:"status"`
	Error       string        `json:"error,omitempty"`
	Frames      int           `json:"frames"`
	Elapsed     time.Duration `json:"elapsed"`
	StartedAt   time.Time     `json:"startedAt"`
	FinishedAt  *time.Time    `json:"finishedAt,omitempty"`
}

// Store is the render history database. SQLite allows one writer, so the
// pool holds a single connection.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("database schema %d is newer than supported %d", version, schemaVersion)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// RecordRun stores a run in the running state and returns its new ID.
func (s *Store) RecordRun(ctx context.Context, composition string, from, to, workers int, output string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, composition, from_frame, to_frame, workers, output, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, composition, from, to, workers, output, StatusRunning, s.now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	return id, nil
}

// FinishRun marks a run done. runErr decides the status: nil is ok, a
// cancelled context is cancelled, anything else failed.
func (s *Store) FinishRun(ctx context.Context, id string, frames int, elapsed time.Duration, runErr error) error {
	status, msg := StatusOK, ""
	switch {
	case errors.Is(runErr, context.Canceled):
		status, msg = StatusCancelled, runErr.Error()
	case runErr != nil:
		status, msg = StatusFailed, runErr.Error()
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, error = ?, frames = ?, elapsed_ms = ?, finished_at = ?
		WHERE id = ?`,
		status, msg, frames, elapsed.Milliseconds(), s.now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first. An empty composition
// lists every run; limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, composition string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, composition, from_frame, to_frame, workers, output, status, error,
		       frames, elapsed_ms, started_at, finished_at
		FROM runs
		WHERE ? = '' OR composition = ?
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?`,
		composition, composition, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			elapsed  int64
			started  int64
			finished sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.Composition, &r.From, &r.To, &r.Workers, &r.Output, &r.Status,
			&r.Error, &r.Frames, &elapsed, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Elapsed = time.Duration(elapsed) * time.Millisecond
		r.StartedAt = time.UnixMilli(started).UTC()
		if finished.Valid {
			t := time.UnixMilli(finished.Int64).UTC()
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
