package history

import (
	"fmt"
	"time"
)

// Run is one recorded generation run.
type Run struct {
	ID             int64
	StartedAt      time.Time
	FinishedAt     time.Time
	Branch         string
	Remote         string
	PlannedCommits int
	CreatedCommits int
	RebaseOK       bool
	Pushed         bool
	Error          string
}

// AddRun records a completed (or failed) run and returns it with its
// assigned ID.
func (s *Store) AddRun(r Run) (*Run, error) {
	res, err := s.db.Exec(
		`INSERT INTO runs (started_at, finished_at, branch, remote, planned_commits, created_commits, rebase_ok, pushed, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.StartedAt.UTC().Format(time.RFC3339),
		r.FinishedAt.UTC().Format(time.RFC3339),
		r.Branch, r.Remote,
		r.PlannedCommits, r.CreatedCommits,
		boolToInt(r.RebaseOK), boolToInt(r.Pushed),
		r.Error,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	r.ID, _ = res.LastInsertId()
	return &r, nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 means
// no limit.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	q := `SELECT id, started_at, finished_at, branch, remote, planned_commits, created_commits, rebase_ok, pushed, error
	      FROM runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		var rebaseOK, pushed int
		if err := rows.Scan(&r.ID, &started, &finished, &r.Branch, &r.Remote,
			&r.PlannedCommits, &r.CreatedCommits, &rebaseOK, &pushed, &r.Error); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		r.RebaseOK = rebaseOK != 0
		r.Pushed = pushed != 0
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// TotalCommits returns the number of commits created across all runs.
func (s *Store) TotalCommits() (int64, error) {
	var total int64
	err := s.db.QueryRow(`SELECT COALESCE(SUM(created_commits), 0) FROM runs`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum commits: %w", err)
	}
	return total, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
