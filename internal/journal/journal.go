// Package journal is the local sync audit trail: one row per sync run plus
// the per-item conflict resolutions that run produced.
package journal

import (
	"database/sql"
	"fmt"
	"time"

	"PromptKeeper/internal/model"

	_ "modernc.org/sqlite"
)

// Run is one completed (or failed) sync attempt.
type Run struct {
	ID        int64
	StartedAt time.Time
	Backend   string
	Action    string
	Strategy  string
	Reason    string
	Added     int
	Modified  int
	Deleted   int
	Conflicts int
	Success   bool
	Message   string
}

// Journal wraps the audit database.
type Journal struct {
	db *sql.DB
}

// Open opens (and creates if needed) the journal database at path.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

// Close closes the underlying DB.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

func (j *Journal) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS sync_runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  started_at INTEGER NOT NULL,
  backend TEXT NOT NULL,
  action TEXT NOT NULL,
  strategy TEXT NOT NULL,
  reason TEXT NOT NULL,
  added INTEGER NOT NULL DEFAULT 0,
  modified INTEGER NOT NULL DEFAULT 0,
  deleted INTEGER NOT NULL DEFAULT 0,
  conflicts INTEGER NOT NULL DEFAULT 0,
  success INTEGER NOT NULL,
  message TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS conflict_resolutions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  run_id INTEGER NOT NULL REFERENCES sync_runs(id),
  item_id TEXT NOT NULL,
  strategy TEXT NOT NULL,
  reason TEXT NOT NULL,
  resolved_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sync_runs_started_at ON sync_runs(started_at);
CREATE INDEX IF NOT EXISTS idx_conflicts_run_id ON conflict_resolutions(run_id);
`
	_, err := j.db.Exec(ddl)
	return err
}

// RecordRun appends a run and its conflict resolutions in one transaction.
func (j *Journal) RecordRun(run Run, conflicts []model.ConflictResolution) (int64, error) {
	tx, err := j.db.Begin()
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	succ := 0
	if run.Success {
		succ = 1
	}
	res, err := tx.Exec(`INSERT INTO sync_runs(
      started_at, backend, action, strategy, reason,
      added, modified, deleted, conflicts, success, message
    ) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.StartedAt.Unix(), run.Backend, run.Action, run.Strategy, run.Reason,
		run.Added, run.Modified, run.Deleted, run.Conflicts, succ, run.Message,
	)
	if err != nil {
		return 0, fmt.Errorf("insert sync run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	for _, c := range conflicts {
		if _, err := tx.Exec(`INSERT INTO conflict_resolutions(run_id, item_id, strategy, reason, resolved_at)
        VALUES(?, ?, ?, ?, ?)`,
			runID, c.ItemID, string(c.Strategy), c.Reason, c.Timestamp.Unix(),
		); err != nil {
			return 0, fmt.Errorf("insert conflict resolution: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

// RecentRuns returns up to limit runs, newest first.
func (j *Journal) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := j.db.Query(`SELECT id, started_at, backend, action, strategy, reason,
      added, modified, deleted, conflicts, success, message
    FROM sync_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		var r Run
		var started int64
		var succ int
		if err := rows.Scan(&r.ID, &started, &r.Backend, &r.Action, &r.Strategy, &r.Reason,
			&r.Added, &r.Modified, &r.Deleted, &r.Conflicts, &succ, &r.Message); err != nil {
			return nil, err
		}
		r.StartedAt = time.Unix(started, 0).UTC()
		r.Success = succ != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// ConflictsForRun returns the conflict audit rows of one run.
func (j *Journal) ConflictsForRun(runID int64) ([]model.ConflictResolution, error) {
	rows, err := j.db.Query(`SELECT item_id, strategy, reason, resolved_at
    FROM conflict_resolutions WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ConflictResolution
	for rows.Next() {
		var c model.ConflictResolution
		var strategy string
		var ts int64
		if err := rows.Scan(&c.ItemID, &strategy, &c.Reason, &ts); err != nil {
			return nil, err
		}
		c.Strategy = model.Strategy(strategy)
		c.Timestamp = time.Unix(ts, 0).UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}
