package sinks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/steamahead/jobminer/internal/progress"
	"github.com/steamahead/jobminer/internal/store"
)

// StoreSink persists run lifecycle and page progress via a
// store.RunRepository. Page-level deltas are collapsed per run within a batch
// to reduce write amplification.
type StoreSink struct {
	repo   store.RunRepository
	logger *zap.Logger
}

// NewStoreSink constructs a StoreSink for the provided repository.
func NewStoreSink(repo store.RunRepository, logger *zap.Logger) *StoreSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreSink{repo: repo, logger: logger}
}

// Consume forwards lifecycle events in order and collapsed page deltas to the
// repository. It respects ctx deadlines and returns repository errors
// verbatim so the hub can log them.
func (s *StoreSink) Consume(ctx context.Context, batch []progress.Event) error {
	if s == nil || s.repo == nil {
		return nil
	}
	deltas := make(map[uuid.UUID]*pageDelta)

	for _, evt := range batch {
		runID, err := evt.RunUUID()
		if err != nil {
			s.logger.Debug("skipping event with bad run id", zap.Error(err))
			continue
		}
		switch evt.Stage {
		case progress.StageRunStart:
			if err := s.repo.StartRun(ctx, runID, evt.Source, evt.TS, evt.Page); err != nil {
				return fmt.Errorf("start run: %w", err)
			}
		case progress.StagePageDone:
			d := deltas[runID]
			if d == nil {
				d = &pageDelta{}
				deltas[runID] = d
			}
			d.pages++
			d.stubs += int64(evt.Stubs)
			d.kept += int64(evt.Kept)
			d.records += int64(evt.Records)
			if evt.TS.After(d.at) {
				d.at = evt.TS
			}
		case progress.StageRunDone:
			if err := s.flushDelta(ctx, runID, deltas); err != nil {
				return err
			}
			if err := s.repo.CompleteRun(ctx, runID, evt.TS, store.RunCompleted, int64(evt.Records), int64(evt.Skills), nil); err != nil {
				return fmt.Errorf("complete run: %w", err)
			}
		case progress.StageRunCanceled:
			if err := s.flushDelta(ctx, runID, deltas); err != nil {
				return err
			}
			var note *string
			if evt.Note != "" {
				note = &evt.Note
			}
			if err := s.repo.CompleteRun(ctx, runID, evt.TS, store.RunCanceled, int64(evt.Records), int64(evt.Skills), note); err != nil {
				return fmt.Errorf("complete canceled run: %w", err)
			}
		}
	}

	for runID := range deltas {
		if err := s.flushDelta(ctx, runID, deltas); err != nil {
			return err
		}
	}
	return nil
}

// flushDelta writes and clears the accumulated page stats for one run. Runs
// whose terminal event sits in the same batch flush before completion so the
// totals land ahead of the final status.
func (s *StoreSink) flushDelta(ctx context.Context, runID uuid.UUID, deltas map[uuid.UUID]*pageDelta) error {
	d := deltas[runID]
	if d == nil {
		return nil
	}
	delete(deltas, runID)
	if d.pages == 0 && d.stubs == 0 {
		return nil
	}
	if err := s.repo.AddPageStats(ctx, runID, d.pages, d.stubs, d.kept, d.records, d.at); err != nil {
		return fmt.Errorf("add page stats: %w", err)
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *StoreSink) Close(context.Context) error {
	return nil
}

type pageDelta struct {
	pages   int64
	stubs   int64
	kept    int64
	records int64
	at      time.Time
}
