package scrape

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/steamahead/jobminer/internal/metrics"
)

const (
	defaultChunkSize = 8
	defaultCooldown  = 3 * time.Second
)

// PoolConfig controls DetailPool pacing.
type PoolConfig struct {
	// ChunkSize bounds in-flight detail fetches. Default 8.
	ChunkSize int
	// Cooldown is the pause between chunks, kept longer than the fetcher's
	// per-request jitter so the site never sees sustained pressure.
	// Default 3s.
	Cooldown time.Duration
}

// DetailPool fetches and extracts detail pages for a batch of stubs. Stubs
// are processed in fixed-size chunks: one goroutine per stub inside a chunk,
// a full drain before the next chunk starts, and a cooldown in between.
// A single stub's failure never cancels its siblings.
type DetailPool struct {
	fetcher  Fetcher
	adapter  SiteAdapter
	clock    Clock
	archiver Archiver
	cfg      PoolConfig
	logger   *zap.Logger
}

// NewDetailPool builds a pool. archiver may be nil.
func NewDetailPool(
	fetcher Fetcher,
	adapter SiteAdapter,
	clock Clock,
	archiver Archiver,
	cfg PoolConfig,
	logger *zap.Logger,
) *DetailPool {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = defaultCooldown
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DetailPool{
		fetcher:  fetcher,
		adapter:  adapter,
		clock:    clock,
		archiver: archiver,
		cfg:      cfg,
		logger:   logger,
	}
}

// ProcessBatch resolves stubs into listings and their skills, keyed by job
// ID. Failed stubs are logged and dropped from the output. Ordering across
// stubs is unspecified; chunk-to-chunk processing is strictly sequential.
// Cancellation stops before the next chunk and returns what completed.
func (p *DetailPool) ProcessBatch(ctx context.Context, stubs []Stub) ([]Listing, map[string][]Skill) {
	listings := make([]Listing, 0, len(stubs))
	skillsByJob := make(map[string][]Skill, len(stubs))

	var mu sync.Mutex
	for start := 0; start < len(stubs); start += p.cfg.ChunkSize {
		if ctx.Err() != nil {
			break
		}
		if start > 0 {
			if err := pause(ctx, p.cfg.Cooldown); err != nil {
				break
			}
		}

		end := start + p.cfg.ChunkSize
		if end > len(stubs) {
			end = len(stubs)
		}

		var wg sync.WaitGroup
		for _, stub := range stubs[start:end] {
			wg.Add(1)
			go func(stub Stub) {
				defer wg.Done()
				listing, skills, ok := p.processStub(ctx, stub)
				if !ok {
					return
				}
				mu.Lock()
				listings = append(listings, listing)
				skillsByJob[listing.JobID] = skills
				mu.Unlock()
			}(stub)
		}
		wg.Wait()
	}

	return listings, skillsByJob
}

func (p *DetailPool) processStub(ctx context.Context, stub Stub) (Listing, []Skill, bool) {
	source := p.adapter.Name()
	metrics.IncDetailWorkers()
	defer metrics.DecDetailWorkers()

	body, err := p.fetcher.Fetch(ctx, stub.URL)
	if err != nil {
		metrics.ObserveListing(source, "fetch_failed")
		p.logger.Warn("detail fetch failed",
			zap.String("source", source),
			zap.String("url", stub.URL),
			zap.Error(err),
		)
		return Listing{}, nil, false
	}

	if p.archiver != nil {
		if err := p.archiver.Save(ctx, source, stub.URL, body); err != nil {
			p.logger.Warn("archive snapshot failed",
				zap.String("source", source),
				zap.String("url", stub.URL),
				zap.Error(err),
			)
		}
	}

	listing, skills, err := p.adapter.ParseDetailPage(body, stub)
	if err != nil {
		metrics.ObserveListing(source, "parse_failed")
		p.logger.Warn("detail parse failed",
			zap.String("source", source),
			zap.String("url", stub.URL),
			zap.Error(err),
		)
		return Listing{}, nil, false
	}

	if err := validListing(listing); err != nil {
		metrics.ObserveListing(source, "invalid")
		p.logger.Warn("detail record rejected",
			zap.String("source", source),
			zap.String("url", stub.URL),
			zap.Error(err),
		)
		return Listing{}, nil, false
	}

	if listing.ScrapedAt.IsZero() {
		listing.ScrapedAt = p.clock.Now()
	}
	if listing.Status == "" {
		listing.Status = StatusActive
	}

	metrics.ObserveListing(source, "ok")
	return listing, skills, true
}

func validListing(l Listing) error {
	switch {
	case l.JobID == "":
		return errors.New("missing job id")
	case l.Source == "":
		return errors.New("missing source")
	case l.Title == "":
		return errors.New("missing title")
	case l.Link == "":
		return errors.New("missing link")
	}
	return nil
}

// pause sleeps for d or until the context finishes.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
