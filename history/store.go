package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	command     TEXT NOT NULL,
	repo_path   TEXT NOT NULL,
	branch      TEXT NOT NULL DEFAULT '',
	base_branch TEXT NOT NULL DEFAULT '',
	provider    TEXT NOT NULL DEFAULT '',
	model       TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'running',
	detail      TEXT NOT NULL DEFAULT '',
	started_at  TIMESTAMP NOT NULL,
	finished_at TIMESTAMP
);
CREATE TABLE IF NOT EXISTS steps (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL REFERENCES runs(id),
	name        TEXT NOT NULL,
	status      TEXT NOT NULL,
	detail      TEXT NOT NULL DEFAULT '',
	finished_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_steps_run ON steps(run_id);
`

// Run is one recorded workflow invocation.
type Run struct {
	ID         string
	Command    string
	RepoPath   string
	Branch     string
	BaseBranch string
	Provider   string
	Model      string
	Status     string
	Detail     string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Step is one recorded workflow step.
type Step struct {
	RunID      string
	Name       string
	Status     string
	Detail     string
	FinishedAt time.Time
}

// Store persists runs and steps in SQLite.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the per-user database location, ~/.forge/forge.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".forge", "forge.db"), nil
}

// Open opens (and if necessary creates) the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordStart inserts a run in the running state.
func (s *Store) RecordStart(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, command, repo_path, branch, base_branch, provider, model, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 'running', ?)`,
		run.ID, run.Command, run.RepoPath, run.Branch, run.BaseBranch,
		run.Provider, run.Model, run.StartedAt)
	if err != nil {
		return fmt.Errorf("record run start: %w", err)
	}
	return nil
}

// RecordStep appends a completed step to a run.
func (s *Store) RecordStep(ctx context.Context, step Step) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO steps (run_id, name, status, detail, finished_at)
		VALUES (?, ?, ?, ?, ?)`,
		step.RunID, step.Name, step.Status, step.Detail, step.FinishedAt)
	if err != nil {
		return fmt.Errorf("record step: %w", err)
	}
	return nil
}

// RecordFinish marks a run terminal with its final status.
func (s *Store) RecordFinish(ctx context.Context, runID, status, detail string, finishedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, detail = ?, finished_at = ? WHERE id = ?`,
		status, detail, finishedAt, runID)
	if err != nil {
		return fmt.Errorf("record run finish: %w", err)
	}
	return nil
}

// RecentRuns returns the most recent runs, newest first. A repoPath of
// "" returns runs across all repositories.
func (s *Store) RecentRuns(ctx context.Context, repoPath string, limit int) ([]Run, error) {
	query := `
		SELECT id, command, repo_path, branch, base_branch, provider, model,
		       status, detail, started_at, COALESCE(finished_at, started_at)
		FROM runs`
	args := []any{}
	if repoPath != "" {
		query += ` WHERE repo_path = ?`
		args = append(args, repoPath)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Command, &r.RepoPath, &r.Branch, &r.BaseBranch,
			&r.Provider, &r.Model, &r.Status, &r.Detail, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Steps returns a run's steps in recording order.
func (s *Store) Steps(ctx context.Context, runID string) ([]Step, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, name, status, detail, finished_at
		FROM steps WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	var steps []Step
	for rows.Next() {
		var st Step
		if err := rows.Scan(&st.RunID, &st.Name, &st.Status, &st.Detail, &st.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		steps = append(steps, st)
	}
	return steps, rows.Err()
}
