package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/steamahead/jobminer/internal/store"
)

// RunStore is the in-memory twin of the Postgres run store.
type RunStore struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]store.CrawlRun
}

var _ store.RunRepository = (*RunStore)(nil)

// NewRunStore constructs an empty store.
func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[uuid.UUID]store.CrawlRun)}
}

// StartRun records the run as running. A second call for the same ID keeps
// the original row, matching the conflict handling of the Postgres store.
func (s *RunStore) StartRun(_ context.Context, runID uuid.UUID, source string, startedAt time.Time, startPage int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[runID]; exists {
		return nil
	}
	s.runs[runID] = store.CrawlRun{
		ID:        runID,
		Source:    source,
		StartedAt: startedAt,
		Status:    store.RunRunning,
		StartPage: startPage,
	}
	return nil
}

// AddPageStats accumulates per-page deltas. Unknown runs are ignored, like
// an UPDATE that matches no row.
func (s *RunStore) AddPageStats(_ context.Context, runID uuid.UUID, deltaPages, deltaStubs, deltaKept, deltaRecords int64, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return nil
	}
	run.Pages += deltaPages
	run.Stubs += deltaStubs
	run.Kept += deltaKept
	run.Records += deltaRecords
	s.runs[runID] = run
	return nil
}

// CompleteRun marks the run finished with its final totals.
func (s *RunStore) CompleteRun(_ context.Context, runID uuid.UUID, finishedAt time.Time, status store.RunStatus, records, skills int64, errMsg *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return nil
	}
	run.FinishedAt = pointerTime(finishedAt)
	run.Status = status
	run.Records = records
	run.Skills = skills
	run.ErrorMessage = errMsg
	s.runs[runID] = run
	return nil
}

// GetRun loads one run or returns store.ErrNotFound.
func (s *RunStore) GetRun(_ context.Context, runID uuid.UUID) (store.CrawlRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[runID]
	if !ok {
		return store.CrawlRun{}, store.ErrNotFound
	}
	return run, nil
}

// ListRuns returns runs newest first with optional source/status filters.
func (s *RunStore) ListRuns(_ context.Context, source string, status *store.RunStatus, limit, offset int) ([]store.CrawlRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]store.CrawlRun, 0, len(s.runs))
	for _, run := range s.runs {
		if source != "" && run.Source != source {
			continue
		}
		if status != nil && run.Status != *status {
			continue
		}
		matched = append(matched, run)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].StartedAt.Equal(matched[j].StartedAt) {
			return matched[i].StartedAt.After(matched[j].StartedAt)
		}
		return matched[i].ID.String() > matched[j].ID.String()
	})

	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func pointerTime(t time.Time) *time.Time {
	return &t
}
