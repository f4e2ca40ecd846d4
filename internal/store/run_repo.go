package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound signals that the requested record does not exist.
var ErrNotFound = errors.New("run record not found")

// RunStatus mirrors the crawl_runs status column.
type RunStatus string

// Run statuses persisted in crawl_runs.status. A canceled run was cut short
// by shutdown; its pages are safely replayed by the next run.
const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunCanceled  RunStatus = "canceled"
)

// CrawlRun models the crawl_runs table for API responses.
type CrawlRun struct {
	// ID is the run identifier minted at run start (UUID v7).
	ID uuid.UUID
	// Source is the job board the run crawled.
	Source string
	// StartedAt captures when the run was first marked running.
	StartedAt time.Time
	// FinishedAt is nil until the run completes or is canceled.
	FinishedAt *time.Time
	// Status is running/completed/canceled.
	Status RunStatus
	// StartPage is the checkpointed page the run resumed from.
	StartPage int
	// Pages, Stubs, Kept and Records accumulate per-page progress.
	Pages   int64
	Stubs   int64
	Kept    int64
	Records int64
	// Skills counts skill rows written over the whole run.
	Skills int64
	// ErrorMessage optionally stores why the run ended early.
	ErrorMessage *string
}

// RunRepository persists incremental crawl-run progress.
type RunRepository interface {
	// StartRun inserts (or idempotently refreshes) the running row.
	StartRun(ctx context.Context, runID uuid.UUID, source string, startedAt time.Time, startPage int) error
	// AddPageStats applies page/stub/record deltas to a running row.
	AddPageStats(ctx context.Context, runID uuid.UUID, deltaPages, deltaStubs, deltaKept, deltaRecords int64, at time.Time) error
	// CompleteRun marks the run finished with final totals.
	CompleteRun(ctx context.Context, runID uuid.UUID, finishedAt time.Time, status RunStatus, records, skills int64, errMsg *string) error

	// GetRun loads a single run or returns ErrNotFound.
	GetRun(ctx context.Context, runID uuid.UUID) (CrawlRun, error)
	// ListRuns returns runs newest first, filtered by optional source and
	// status, with limit/offset paging.
	ListRuns(ctx context.Context, source string, status *RunStatus, limit, offset int) ([]CrawlRun, error)
}
