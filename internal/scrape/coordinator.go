package scrape

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/steamahead/jobminer/internal/metrics"
	"github.com/steamahead/jobminer/internal/progress"
)

// Config tunes one Coordinator across all the runs it drives.
type Config struct {
	// MaxPages caps pages per run on top of detected bounds. 0 means none.
	MaxPages int
	// ChunkSize and Cooldown are handed to the detail pool.
	ChunkSize int
	Cooldown  time.Duration
	// PreseedWindow controls how far back persisted links are loaded into
	// the deduplicator before a run. 0 disables pre-seeding.
	PreseedWindow time.Duration
}

// Coordinator owns the crawl run loop: resume point, page walk, dedup,
// detail pool, persistence handoff, checkpoint advance. One instance serves
// any number of sources; per-run state (walker, pool, dedup set) is built
// fresh inside Run.
type Coordinator struct {
	cfg         Config
	checkpoints CheckpointStore
	store       ListingStore
	clock       Clock
	ids         IDGenerator
	hub         *progress.Hub
	archiver    Archiver
	logger      *zap.Logger
}

// NewCoordinator wires the run loop. hub and archiver may be nil.
func NewCoordinator(
	cfg Config,
	checkpoints CheckpointStore,
	store ListingStore,
	clock Clock,
	ids IDGenerator,
	hub *progress.Hub,
	archiver Archiver,
	logger *zap.Logger,
) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		cfg:         cfg,
		checkpoints: checkpoints,
		store:       store,
		clock:       clock,
		ids:         ids,
		hub:         hub,
		archiver:    archiver,
		logger:      logger,
	}
}

// Run crawls one source from its checkpointed page until pagination is
// exhausted, a detected bound is reached, or the context is cancelled.
// Page-level failures end the walk but still advance the checkpoint; losing
// one page is recoverable on the next scheduled run, an infinite retry loop
// is not. The returned error is non-nil only for cancellation or when a run
// ID cannot be minted; everything else degrades to skips counted in the
// Summary.
func (c *Coordinator) Run(ctx context.Context, crawlerID string, adapter SiteAdapter, fetcher Fetcher) (Summary, error) {
	runID, err := c.ids.NewID()
	if err != nil {
		return Summary{}, fmt.Errorf("new run id: %w", err)
	}

	started := c.clock.Now()
	source := adapter.Name()
	summary := Summary{RunID: runID}
	logger := c.logger.With(
		zap.String("run_id", runID),
		zap.String("crawler_id", crawlerID),
		zap.String("source", source),
	)

	dedup := NewDeduplicator()
	c.preseed(ctx, dedup, source, logger)

	walker := NewPageWalker(fetcher, adapter, c.cfg.MaxPages, logger)
	pool := NewDetailPool(fetcher, adapter, c.clock, c.archiver, PoolConfig{
		ChunkSize: c.cfg.ChunkSize,
		Cooldown:  c.cfg.Cooldown,
	}, logger)

	page := c.checkpoints.Load(ctx, crawlerID)
	logger.Info("crawl run starting", zap.Int("page", page))
	c.hub.Emit(progress.Event{
		RunID:  runID,
		TS:     c.clock.Now(),
		Stage:  progress.StageRunStart,
		Source: source,
		Page:   page,
	})

	var runErr error
	for {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		stubs, hasMore := walker.NextPage(ctx, page)
		summary.PagesProcessed++
		summary.StubsSeen += len(stubs)

		fresh := make([]Stub, 0, len(stubs))
		for _, stub := range stubs {
			if dedup.MarkIfNew(stub.URL) {
				fresh = append(fresh, stub)
			}
		}
		summary.StubsSkipped += len(stubs) - len(fresh)

		records, skills := pool.ProcessBatch(ctx, fresh)
		summary.RecordsProcessed += len(records)

		// A cancelled batch is not fully persisted; leave the checkpoint
		// on this page so the next run reprocesses it. Idempotent upserts
		// make the replay safe.
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		persisted := c.persistPage(ctx, records, skills, &summary, logger)

		if err := c.checkpoints.Save(ctx, crawlerID, page+1); err != nil {
			logger.Warn("checkpoint save failed", zap.Int("page", page), zap.Error(err))
		}

		c.hub.Emit(progress.Event{
			RunID:   runID,
			TS:      c.clock.Now(),
			Stage:   progress.StagePageDone,
			Source:  source,
			Page:    page,
			Stubs:   len(stubs),
			Kept:    len(fresh),
			Records: persisted,
		})

		if !hasMore {
			break
		}
		page++
	}

	elapsed := c.clock.Now().Sub(started)
	status := "completed"
	stage := progress.StageRunDone
	note := ""
	if runErr != nil {
		status = "canceled"
		stage = progress.StageRunCanceled
		note = runErr.Error()
	}
	metrics.ObserveRun(source, status)
	c.hub.Emit(progress.Event{
		RunID:   runID,
		TS:      c.clock.Now(),
		Stage:   stage,
		Source:  source,
		Page:    page,
		Records: summary.RecordsPersisted,
		Skills:  summary.SkillsWritten,
		Dur:     elapsed,
		Note:    note,
	})
	logger.Info("crawl run finished",
		zap.String("status", status),
		zap.Int("pages", summary.PagesProcessed),
		zap.Int("records", summary.RecordsProcessed),
		zap.Int("persisted", summary.RecordsPersisted),
		zap.Int("failed", summary.RecordsFailed),
		zap.Int("skills", summary.SkillsWritten),
		zap.Duration("elapsed", elapsed),
	)
	return summary, runErr
}

// persistPage upserts one page's records and, for each successful upsert,
// that record's skills. Returns how many records were persisted.
func (c *Coordinator) persistPage(
	ctx context.Context,
	records []Listing,
	skills map[string][]Skill,
	summary *Summary,
	logger *zap.Logger,
) int {
	persisted := 0
	for _, rec := range records {
		shortID, inserted, err := c.store.Upsert(ctx, rec)
		if err != nil {
			summary.RecordsFailed++
			logger.Warn("listing upsert failed",
				zap.String("job_id", rec.JobID),
				zap.String("link", rec.Link),
				zap.Error(err),
			)
			continue
		}
		summary.RecordsPersisted++
		persisted++
		logger.Debug("listing stored",
			zap.String("job_id", rec.JobID),
			zap.Int64("short_id", shortID),
			zap.Bool("inserted", inserted),
		)

		recSkills := skills[rec.JobID]
		if len(recSkills) == 0 {
			continue
		}
		if err := c.store.UpsertSkills(ctx, shortID, rec.JobID, rec.Source, recSkills); err != nil {
			logger.Warn("skill upsert failed",
				zap.String("job_id", rec.JobID),
				zap.Error(err),
			)
			continue
		}
		summary.SkillsWritten += len(recSkills)
		metrics.AddSkills(rec.Source, len(recSkills))
	}
	return persisted
}

func (c *Coordinator) preseed(ctx context.Context, dedup *Deduplicator, source string, logger *zap.Logger) {
	if c.cfg.PreseedWindow <= 0 {
		return
	}
	since := c.clock.Now().Add(-c.cfg.PreseedWindow)
	links, err := c.store.KnownLinks(ctx, source, since)
	if err != nil {
		logger.Warn("dedup preseed failed", zap.Error(err))
		return
	}
	dedup.Preseed(links)
	logger.Debug("dedup preseeded", zap.Int("links", len(links)))
}
