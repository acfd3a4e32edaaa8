package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"actorflow/internal/config"
	"actorflow/internal/flow"
)

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.HistoryPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record persists a finished run. runErr is the error returned by the engine,
// if any.
func (s *Store) Record(ctx context.Context, report *flow.Report, runErr error, sourceDir string) (*Run, error) {
	if report == nil {
		return nil, errors.New("report is nil")
	}
	if strings.TrimSpace(report.RunID) == "" {
		return nil, errors.New("report has no run id")
	}
	run := FromReport(report, runErr, sourceDir)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin record tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (
            id, started_at, finished_at, items, arrived, workers, pending,
            status, error_kind, error_message, source_dir
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		run.Items,
		run.Arrived,
		run.Workers,
		run.Pending,
		string(run.Status),
		nullableString(run.ErrorKind),
		nullableString(run.ErrorMessage),
		nullableString(run.SourceDir),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	for i, st := range run.Stages {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO run_stages (run_id, stage, position, workers, visits, busy_ms)
             VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, st.Stage, i, st.Workers, st.Visits, st.Busy.Milliseconds(),
		)
		if err != nil {
			return nil, fmt.Errorf("insert stage %s: %w", st.Stage, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit run: %w", err)
	}
	return run, nil
}

// List returns the most recent runs first. A limit <= 0 returns every run.
// Stage rows are not loaded; use Get for the full record.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Get fetches a run and its stage rows. A unique id prefix is accepted. It
// returns nil when no run matches.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("run id is required")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? ORDER BY id LIMIT 2`,
		id, escapeLike(id)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	var matches []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	rows.Close()

	var run *Run
	switch {
	case len(matches) == 0:
		return nil, nil
	case len(matches) == 1:
		run = matches[0]
	default:
		for _, candidate := range matches {
			if candidate.ID == id {
				run = candidate
			}
		}
		if run == nil {
			return nil, fmt.Errorf("run id prefix %q is ambiguous", id)
		}
	}

	stages, err := s.loadStages(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	run.Stages = stages
	return run, nil
}

func (s *Store) loadStages(ctx context.Context, runID string) ([]StageRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT stage, workers, visits, busy_ms FROM run_stages WHERE run_id = ? ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("load stages: %w", err)
	}
	defer rows.Close()

	var stages []StageRecord
	for rows.Next() {
		var (
			st     StageRecord
			busyMS int64
		)
		if err := rows.Scan(&st.Stage, &st.Workers, &st.Visits, &busyMS); err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		st.Busy = time.Duration(busyMS) * time.Millisecond
		stages = append(stages, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stages: %w", err)
	}
	return stages, nil
}

// Prune keeps the newest keep runs and deletes the rest. It returns the
// number of runs removed. keep <= 0 leaves the history untouched.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin prune tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM runs WHERE id NOT IN (
            SELECT id FROM runs ORDER BY started_at DESC, id LIMIT ?
        )`,
		keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	// foreign_keys is a per-connection pragma, so stage rows are not left to the cascade.
	if _, err := tx.ExecContext(ctx, `DELETE FROM run_stages WHERE run_id NOT IN (SELECT id FROM runs)`); err != nil {
		return 0, fmt.Errorf("prune stages: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit prune: %w", err)
	}
	return removed, nil
}
