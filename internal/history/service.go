// Package history records diff report runs in Postgres so the platform
// service stays idempotent across webhook redeliveries and keeps an audit
// trail of what was reported on which commit.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Run lifecycle states.
const (
	StatusQueued    = "QUEUED"
	StatusRunning   = "RUNNING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// Run is one recorded report run.
type Run struct {
	ID           string
	RepoFullName string
	CommitSHA    string
	PRNumber     *int
	Status       string
	Summary      *string
	ErrorMessage *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Service provides run tracking backed by Postgres.
type Service struct {
	db *sql.DB
}

// NewService creates a new history Service.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// StartRun creates (or revives) the run for a repo/commit/PR triple and
// returns its ID. The idempotency key is repo + commit (+ PR number), so
// webhook redeliveries land on the same row.
func (s *Service) StartRun(ctx context.Context, repoFullName, commitSHA string, prNumber *int) (string, error) {
	key := idempotencyKey(repoFullName, commitSHA, prNumber)

	var id string
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO report_runs (repo_full_name, commit_sha, pr_number, idempotency_key, status)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (idempotency_key) DO UPDATE SET status = $5, updated_at = now()
		 RETURNING id`,
		repoFullName, commitSHA, prNumber, key, StatusRunning,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}
	return id, nil
}

func idempotencyKey(repoFullName, commitSHA string, prNumber *int) string {
	key := fmt.Sprintf("%s:%s", repoFullName, commitSHA)
	if prNumber != nil {
		key = fmt.Sprintf("%s:pr%d", key, *prNumber)
	}
	return key
}

// Complete marks a run finished and stores the rendered summary.
func (s *Service) Complete(ctx context.Context, id, summary string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE report_runs SET status = $1, summary = $2, updated_at = now() WHERE id = $3`,
		StatusCompleted, summary, id,
	)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	return nil
}

// Fail marks a run failed with the given error message.
func (s *Service) Fail(ctx context.Context, id, errMsg string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE report_runs SET status = $1, error_message = $2, updated_at = now() WHERE id = $3`,
		StatusFailed, errMsg, id,
	)
	if err != nil {
		return fmt.Errorf("fail run: %w", err)
	}
	return nil
}

// RecentRuns lists the most recent runs, newest first.
func (s *Service) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, repo_full_name, commit_sha, pr_number, status, summary, error_message, created_at, updated_at
		 FROM report_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.RepoFullName, &r.CommitSHA, &r.PRNumber,
			&r.Status, &r.Summary, &r.ErrorMessage, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
