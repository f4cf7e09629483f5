package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the push state of a publish run.
type Status string

const (
	// StatusPublished marks runs whose site changes were not pushed because git is disabled.
	StatusPublished Status = "published"
	// StatusPushPending marks runs that are committed or about to be, but not yet pushed.
	StatusPushPending Status = "push_pending"
	// StatusPushed marks runs whose commit reached the remote.
	StatusPushed Status = "pushed"
	// StatusPushFailed marks runs whose last push attempt failed.
	StatusPushFailed Status = "push_failed"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// Run is one publish operation.
type Run struct {
	RunID         string
	ProjectRoot   string
	ComicID       string
	Status        Status
	CommitMessage string
	LastError     string
	Attempts      int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

const runColumns = "run_id, project_root, comic_id, status, commit_message, last_error, attempts, created_at, updated_at"

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// RecordRun inserts a run. RunID is generated when empty and Status defaults
// to push_pending.
func (s *Store) RecordRun(ctx context.Context, run Run) (Run, error) {
	if strings.TrimSpace(run.ComicID) == "" {
		return Run{}, errors.New("record run: comic id is required")
	}
	if strings.TrimSpace(run.ProjectRoot) == "" {
		return Run{}, errors.New("record run: project root is required")
	}
	if run.RunID == "" {
		run.RunID = NewRunID()
	}
	if run.Status == "" {
		run.Status = StatusPushPending
	}
	now := s.now()
	_, err := s.execWithRetry(ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.ProjectRoot, run.ComicID, string(run.Status),
		nullableString(run.CommitMessage), nullableString(run.LastError), run.Attempts, now, now,
	)
	if err != nil {
		return Run{}, fmt.Errorf("record run %s: %w", run.ComicID, err)
	}
	return s.Get(ctx, run.RunID)
}

// MarkPushed records a successful push for every listed run.
func (s *Store) MarkPushed(ctx context.Context, runIDs ...string) error {
	if len(runIDs) == 0 {
		return nil
	}
	args := []any{string(StatusPushed), s.now()}
	for _, id := range runIDs {
		args = append(args, id)
	}
	_, err := s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, last_error = NULL, attempts = attempts + 1, updated_at = ?
		 WHERE run_id IN (`+makePlaceholders(len(runIDs))+`)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("mark runs pushed: %w", err)
	}
	return nil
}

// MarkPushFailed records a failed push attempt for every listed run.
func (s *Store) MarkPushFailed(ctx context.Context, message string, runIDs ...string) error {
	if len(runIDs) == 0 {
		return nil
	}
	args := []any{string(StatusPushFailed), nullableString(strings.TrimSpace(message)), s.now()}
	for _, id := range runIDs {
		args = append(args, id)
	}
	_, err := s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, last_error = ?, attempts = attempts + 1, updated_at = ?
		 WHERE run_id IN (`+makePlaceholders(len(runIDs))+`)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("mark runs push failed: %w", err)
	}
	return nil
}

// Get fetches one run.
func (s *Store) Get(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	return run, nil
}

// Pending lists runs under projectRoot whose commits have not reached the
// remote, oldest first.
func (s *Store) Pending(ctx context.Context, projectRoot string) ([]Run, error) {
	return s.query(ctx,
		`SELECT `+runColumns+` FROM runs
		 WHERE project_root = ? AND status IN (?, ?)
		 ORDER BY created_at, rowid`,
		projectRoot, string(StatusPushPending), string(StatusPushFailed),
	)
}

// List returns the newest runs first. A limit <= 0 returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, rowid DESC`
	if limit > 0 {
		return s.query(ctx, query+` LIMIT ?`, limit)
	}
	return s.query(ctx, query)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run        Run
		status     string
		commitMsg  sql.NullString
		lastError  sql.NullString
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(
		&run.RunID,
		&run.ProjectRoot,
		&run.ComicID,
		&status,
		&commitMsg,
		&lastError,
		&run.Attempts,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return Run{}, err
	}
	run.Status = Status(status)
	run.CommitMessage = commitMsg.String
	run.LastError = lastError.String
	if created, err := parseTimeString(createdRaw); err == nil {
		run.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		run.UpdatedAt = updated
	}
	return run, nil
}
