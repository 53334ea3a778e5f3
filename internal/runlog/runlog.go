// Package runlog records crawl run history in SQLite so operators can
// see what the archive has been doing without reading crawl output.
package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// Status is the lifecycle state of one run.
type Status string

const (
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
	StatusAborted  Status = "aborted"
)

// Summary aggregates what one run accomplished.
type Summary struct {
	Processed   int `json:"processed"`
	Archived    int `json:"archived"`
	Skipped     int `json:"skipped"`
	Degraded    int `json:"degraded"`
	RateLimited int `json:"rate_limited"`
	Pruned      int `json:"pruned"`
	LastIndex   int `json:"last_index"`
}

// Run is one crawl invocation.
type Run struct {
	ID        string    `json:"id"`
	Mode      string    `json:"mode"`
	Status    Status    `json:"status"`
	Summary   *Summary  `json:"summary,omitempty"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists runs using modernc.org/sqlite.
type Store struct {
	db *sql.DB
}

// Open opens the run log at dsn and configures WAL mode.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "runlog: exec %s", pragma)
		}
	}
	return &Store{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	mode       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	summary    TEXT,
	started_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "runlog: migrate")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// StartRun records a new run in the running state.
func (s *Store) StartRun(ctx context.Context, mode string) (*Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, mode, status, started_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, mode, string(StatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: insert run")
	}

	return &Run{
		ID:        id,
		Mode:      mode,
		Status:    StatusRunning,
		StartedAt: now,
		UpdatedAt: now,
	}, nil
}

// FinishRun closes a run with its final status and summary.
func (s *Store) FinishRun(ctx context.Context, runID string, status Status, sum *Summary) error {
	summaryJSON, err := json.Marshal(sum)
	if err != nil {
		return eris.Wrap(err, "runlog: marshal summary")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, summary = ?, updated_at = ? WHERE id = ?`,
		string(status), string(summaryJSON), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: finish run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

// GetRun fetches one run by id.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, mode, status, summary, started_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, status, summary, started_at, updated_at FROM runs
		 ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "runlog: list runs iterate")
}

// LatestRun returns the newest run, or nil when the log is empty.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*Run, error) {
	var r Run
	var summaryJSON sql.NullString

	err := row.Scan(&r.ID, &r.Mode, &r.Status, &summaryJSON, &r.StartedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "runlog: scan run")
	}

	if summaryJSON.Valid {
		r.Summary = &Summary{}
		if err := json.Unmarshal([]byte(summaryJSON.String), r.Summary); err != nil {
			return nil, eris.Wrap(err, "runlog: unmarshal summary")
		}
	}
	return &r, nil
}
