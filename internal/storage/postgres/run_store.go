package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/steamahead/jobminer/internal/store"
)

// RunStore implements store.RunRepository on the crawl_runs table.
type RunStore struct {
	db DB
}

var _ store.RunRepository = (*RunStore)(nil)

// NewRunStore wraps an open pool or a mock.
func NewRunStore(db DB) (*RunStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	return &RunStore{db: db}, nil
}

// StartRun records a run in the running state. Replayed events are ignored;
// the first start wins.
func (s *RunStore) StartRun(ctx context.Context, runID uuid.UUID, source string, startedAt time.Time, startPage int) error {
	query := `
		INSERT INTO crawl_runs (id, source, started_at, status, start_page)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING;
	`
	if _, err := s.db.Exec(ctx, query, runID, source, startedAt, store.RunRunning, startPage); err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	return nil
}

// AddPageStats folds page-level deltas into the run's counters.
func (s *RunStore) AddPageStats(ctx context.Context, runID uuid.UUID, deltaPages, deltaStubs, deltaKept, deltaRecords int64, at time.Time) error {
	query := `
		UPDATE crawl_runs
		SET pages = pages + $2,
			stubs = stubs + $3,
			kept = kept + $4,
			records = records + $5,
			updated_at = $6
		WHERE id = $1;
	`
	if _, err := s.db.Exec(ctx, query, runID, deltaPages, deltaStubs, deltaKept, deltaRecords, at); err != nil {
		return fmt.Errorf("add page stats: %w", err)
	}
	return nil
}

// CompleteRun closes a run with its terminal status and final totals.
func (s *RunStore) CompleteRun(ctx context.Context, runID uuid.UUID, finishedAt time.Time, status store.RunStatus, records, skills int64, errMsg *string) error {
	query := `
		UPDATE crawl_runs
		SET finished_at = $2,
			status = $3,
			records = $4,
			skills = $5,
			error_message = $6,
			updated_at = $2
		WHERE id = $1;
	`
	if _, err := s.db.Exec(ctx, query, runID, finishedAt, status, records, skills, errMsg); err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	return nil
}

const selectRunColumns = `
	SELECT id, source, started_at, finished_at, status, start_page,
		pages, stubs, kept, records, skills, error_message
	FROM crawl_runs`

// GetRun retrieves a single run by ID.
func (s *RunStore) GetRun(ctx context.Context, runID uuid.UUID) (store.CrawlRun, error) {
	var run store.CrawlRun
	err := s.db.QueryRow(ctx, selectRunColumns+` WHERE id = $1;`, runID).Scan(
		&run.ID,
		&run.Source,
		&run.StartedAt,
		&run.FinishedAt,
		&run.Status,
		&run.StartPage,
		&run.Pages,
		&run.Stubs,
		&run.Kept,
		&run.Records,
		&run.Skills,
		&run.ErrorMessage,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.CrawlRun{}, store.ErrNotFound
		}
		return store.CrawlRun{}, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves recent runs, newest first, optionally filtered by
// source and status.
func (s *RunStore) ListRuns(ctx context.Context, source string, status *store.RunStatus, limit, offset int) ([]store.CrawlRun, error) {
	query := selectRunColumns + `
		WHERE ($1 = '' OR source = $1)
			AND ($2::text IS NULL OR status = $2)
		ORDER BY started_at DESC
		LIMIT $3 OFFSET $4;
	`
	rows, err := s.db.Query(ctx, query, source, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []store.CrawlRun
	for rows.Next() {
		var run store.CrawlRun
		err := rows.Scan(
			&run.ID,
			&run.Source,
			&run.StartedAt,
			&run.FinishedAt,
			&run.Status,
			&run.StartPage,
			&run.Pages,
			&run.Stubs,
			&run.Kept,
			&run.Records,
			&run.Skills,
			&run.ErrorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}
