// internal/store/store.go

// Package store keeps a ledger of generate/fit runs in a local SQLite file.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"mavekit/pkg/api"
)

// FileName is the ledger's name inside an output directory.
const FileName = "runs.db"

// Run statuses.
const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusFailed  = "failed"
)

// Fixed-width so that text order is time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned by Get for an unknown run id.
var ErrNotFound = errors.New("store: run not found")

// Store is a run ledger backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	step        TEXT NOT NULL,
	status      TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	finished_at TEXT,
	params      TEXT,
	artifacts   TEXT,
	metrics     TEXT,
	error       TEXT
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`

// Open creates (if needed) and opens the ledger at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; the CLI never needs more
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Close() error { return s.db.Close() }

// Begin records a new running step and returns it.
func (s *Store) Begin(ctx context.Context, step string, params map[string]any) (api.RunV1, error) {
	run := api.RunV1{
		ID:        uuid.NewString(),
		Step:      step,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
		Params:    params,
	}
	p, err := marshal(params)
	if err != nil {
		return api.RunV1{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, step, status, started_at, params) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Step, run.Status, run.StartedAt.Format(timeLayout), p)
	if err != nil {
		return api.RunV1{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// Finish closes run id; a non-nil runErr marks it failed.
func (s *Store) Finish(ctx context.Context, id string, artifacts map[string]string, metrics map[string]float64, runErr error) error {
	status, msg := StatusOK, ""
	if runErr != nil {
		status, msg = StatusFailed, runErr.Error()
	}
	a, err := marshal(artifacts)
	if err != nil {
		return err
	}
	m, err := marshal(sanitize(metrics))
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ?, artifacts = ?, metrics = ?, error = ? WHERE id = ?`,
		status, time.Now().UTC().Format(timeLayout), a, m, msg, id)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

const selectRuns = `SELECT id, step, status, started_at, finished_at, params, artifacts, metrics, error FROM runs`

// List returns the most recent runs first; limit <= 0 means all.
func (s *Store) List(ctx context.Context, limit int) ([]api.RunV1, error) {
	q := selectRuns + ` ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()
	var out []api.RunV1
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Get returns one run; id may be a unique prefix.
func (s *Store) Get(ctx context.Context, id string) (api.RunV1, error) {
	r, err := scan(s.db.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, id))
	if err == nil || !errors.Is(err, sql.ErrNoRows) {
		return r, err
	}
	rows, err := s.db.QueryContext(ctx, selectRuns+` WHERE id LIKE ? LIMIT 2`, id+"%")
	if err != nil {
		return api.RunV1{}, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()
	var found []api.RunV1
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return api.RunV1{}, err
		}
		found = append(found, r)
	}
	if err := rows.Err(); err != nil {
		return api.RunV1{}, err
	}
	switch len(found) {
	case 0:
		return api.RunV1{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return found[0], nil
	}
	return api.RunV1{}, fmt.Errorf("run id prefix %q is ambiguous", id)
}

type scanner interface{ Scan(dest ...any) error }

func scan(sc scanner) (api.RunV1, error) {
	var (
		r                            api.RunV1
		started                      string
		finished, p, a, m, errString sql.NullString
	)
	if err := sc.Scan(&r.ID, &r.Step, &r.Status, &started, &finished, &p, &a, &m, &errString); err != nil {
		return api.RunV1{}, fmt.Errorf("scan run: %w", err)
	}
	t, err := time.Parse(timeLayout, started)
	if err != nil {
		return api.RunV1{}, fmt.Errorf("run %s: bad started_at: %w", r.ID, err)
	}
	r.StartedAt = t
	if finished.Valid {
		ft, err := time.Parse(timeLayout, finished.String)
		if err != nil {
			return api.RunV1{}, fmt.Errorf("run %s: bad finished_at: %w", r.ID, err)
		}
		r.FinishedAt = &ft
	}
	r.Error = errString.String
	for _, f := range []struct {
		raw sql.NullString
		dst any
	}{{p, &r.Params}, {a, &r.Artifacts}, {m, &r.Metrics}} {
		if f.raw.Valid && f.raw.String != "" {
			if err := json.Unmarshal([]byte(f.raw.String), f.dst); err != nil {
				return api.RunV1{}, fmt.Errorf("run %s: %w", r.ID, err)
			}
		}
	}
	return r, nil
}

func marshal(v any) (sql.NullString, error) {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 {
			return sql.NullString{}, nil
		}
	case map[string]string:
		if len(t) == 0 {
			return sql.NullString{}, nil
		}
	case map[string]float64:
		if len(t) == 0 {
			return sql.NullString{}, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// sanitize drops NaN and Inf metrics, which JSON cannot carry.
func sanitize(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}
