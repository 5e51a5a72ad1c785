// Package journal records every organize run and the decision taken for each
// source file in a SQLite database, so placements made under a bypassed or
// best-guess timestamp can be audited later.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/quidome/media-ledger/pkg/journal/migrations"
)

// ErrNoRuns is returned by LatestRun on an empty journal.
var ErrNoRuns = errors.New("no runs recorded")

// Action is the outcome recorded for one source file.
type Action string

const (
	ActionPlaced    Action = "placed"
	ActionUnchanged Action = "unchanged"
	ActionReplaced  Action = "replaced"
	ActionSkipped   Action = "skipped"
	ActionFailed    Action = "failed"
)

// Run is one organize invocation.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Root       string
	DryRun     bool

	Placed  int
	Skipped int
	Failed  int
}

// Entry is the decision taken for one source file.
type Entry struct {
	RunID  string
	Source string
	Action Action
	Target string

	CreatedAt     time.Time
	DateSource    string
	Field         string
	Reason        string
	Bypassed      bool
	LowConfidence bool

	RecordedAt time.Time
}

// Journal is a SQLite-backed run log.
type Journal struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal at path and migrates it.
// path may be ":memory:".
func Open(path string) (*Journal, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: an in-memory database is private to its connection,
	// and runs are written sequentially anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// StartRun inserts a new run.
func (j *Journal) StartRun(ctx context.Context, r Run) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, root, dry_run) VALUES (?, ?, ?, ?)`,
		r.ID, formatTime(r.StartedAt), r.Root, r.DryRun)
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	return nil
}

// FinishRun stores the end time and counters of a run.
func (j *Journal) FinishRun(ctx context.Context, r Run) error {
	res, err := j.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, placed = ?, skipped = ?, failed = ? WHERE id = ?`,
		formatTime(r.FinishedAt), r.Placed, r.Skipped, r.Failed, r.ID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run: unknown run %s", r.ID)
	}
	return nil
}

// Record appends an entry to its run.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	var created sql.NullString
	if !e.CreatedAt.IsZero() {
		created = sql.NullString{String: formatTime(e.CreatedAt), Valid: true}
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO entries (run_id, source, action, target, created_at, date_source, field, reason, bypassed, low_confidence, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Source, string(e.Action), e.Target, created, e.DateSource, e.Field, e.Reason,
		e.Bypassed, e.LowConfidence, formatTime(e.RecordedAt))
	if err != nil {
		return fmt.Errorf("record %s: %w", e.Source, err)
	}
	return nil
}

// LatestRun returns the most recently started run.
func (j *Journal) LatestRun(ctx context.Context) (Run, error) {
	row := j.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, root, dry_run, placed, skipped, failed
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1`)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNoRuns
	}
	return r, err
}

// Runs returns up to limit runs, newest first.
func (j *Journal) Runs(ctx context.Context, limit int) ([]Run, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, root, dry_run, placed, skipped, failed
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Entries returns the entries of a run in the order they were recorded.
func (j *Journal) Entries(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT run_id, source, action, target, created_at, date_source, field, reason, bypassed, low_confidence, recorded_at
		 FROM entries WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e        Entry
			action   string
			created  sql.NullString
			recorded string
		)
		if err := rows.Scan(&e.RunID, &e.Source, &action, &e.Target, &created, &e.DateSource, &e.Field,
			&e.Reason, &e.Bypassed, &e.LowConfidence, &recorded); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Action = Action(action)
		if created.Valid {
			if e.CreatedAt, err = parseTime(created.String); err != nil {
				return nil, err
			}
		}
		if e.RecordedAt, err = parseTime(recorded); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		r        Run
		started  string
		finished sql.NullString
	)
	if err := s.Scan(&r.ID, &started, &finished, &r.Root, &r.DryRun, &r.Placed, &r.Skipped, &r.Failed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	var err error
	if r.StartedAt, err = parseTime(started); err != nil {
		return Run{}, err
	}
	if finished.Valid {
		if r.FinishedAt, err = parseTime(finished.String); err != nil {
			return Run{}, err
		}
	}
	return r, nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
