package history

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// TargetSummary is the outcome of one import list within a run.
type TargetSummary struct {
	Target  string  `json:"target"`
	Found   int     `json:"found"`
	Unknown int     `json:"unknown"`
	Skipped int     `json:"skipped"`
	IDs     []int64 `json:"ids"`
}

// Run is one completed pipeline execution.
type Run struct {
	ID         string          `json:"id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Seasons    []string        `json:"seasons"`
	Entries    int             `json:"entries"`
	Targets    []TargetSummary `json:"targets"`
}

// Target returns the summary for name, if recorded.
func (r Run) Target(name string) (TargetSummary, bool) {
	for _, t := range r.Targets {
		if t.Target == name {
			return t, true
		}
	}
	return TargetSummary{}, false
}

// Store manages the run ledger backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	keep int
}

// Option configures a Store.
type Option func(*Store)

// WithKeepRuns prunes the ledger to the newest n runs after every Record.
// Zero keeps everything.
func WithKeepRuns(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.keep = n
		}
	}
}

// Open initializes or connects to the ledger database.
func Open(path string, opts ...Option) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

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

	store := &Store{db: db, path: path}
	for _, opt := range opts {
		opt(store)
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return nil
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)", ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

// Record stores run and prunes old runs when a keep limit is set.
func (s *Store) Record(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id is required")
	}
	seasons, err := json.Marshal(nonNil(run.Seasons))
	if err != nil {
		return fmt.Errorf("marshal seasons: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, seasons, entries) VALUES (?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(timeLayout),
		run.FinishedAt.UTC().Format(timeLayout),
		string(seasons),
		run.Entries,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, target := range run.Targets {
		ids, err := json.Marshal(nonNil(target.IDs))
		if err != nil {
			return fmt.Errorf("marshal ids: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_targets (run_id, target, found, unknown, skipped, ids_json) VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, target.Target, target.Found, target.Unknown, target.Skipped, string(ids),
		); err != nil {
			return fmt.Errorf("insert run target %s: %w", target.Target, err)
		}
	}

	if s.keep > 0 {
		if _, err := prune(ctx, tx, s.keep); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// Prune deletes all but the newest keep runs and returns how many were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	return prune(ctx, s.db, keep)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func prune(ctx context.Context, db execer, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := db.ExecContext(ctx,
		`DELETE FROM runs WHERE id NOT IN (
            SELECT id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?
        )`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM run_targets WHERE run_id NOT IN (SELECT id FROM runs)`); err != nil {
		return 0, fmt.Errorf("prune run targets: %w", err)
	}
	return n, nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, seasons, entries FROM runs
        ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	index := make(map[string]int)
	for rows.Next() {
		var (
			run               Run
			started, finished string
			seasons           string
		)
		if err := rows.Scan(&run.ID, &started, &finished, &seasons, &run.Entries); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = parseTime(started)
		run.FinishedAt = parseTime(finished)
		if err := json.Unmarshal([]byte(seasons), &run.Seasons); err != nil {
			return nil, fmt.Errorf("decode seasons for %s: %w", run.ID, err)
		}
		index[run.ID] = len(runs)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	if len(runs) == 0 {
		return runs, nil
	}

	targetRows, err := s.db.QueryContext(ctx,
		`SELECT run_id, target, found, unknown, skipped, ids_json FROM run_targets ORDER BY run_id, target`)
	if err != nil {
		return nil, fmt.Errorf("query run targets: %w", err)
	}
	defer targetRows.Close()
	for targetRows.Next() {
		var (
			runID string
			ids   string
			t     TargetSummary
		)
		if err := targetRows.Scan(&runID, &t.Target, &t.Found, &t.Unknown, &t.Skipped, &ids); err != nil {
			return nil, fmt.Errorf("scan run target: %w", err)
		}
		i, ok := index[runID]
		if !ok {
			continue
		}
		if err := json.Unmarshal([]byte(ids), &t.IDs); err != nil {
			return nil, fmt.Errorf("decode ids for %s: %w", runID, err)
		}
		runs[i].Targets = append(runs[i].Targets, t)
	}
	if err := targetRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run targets: %w", err)
	}
	return runs, nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}
