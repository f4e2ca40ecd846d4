package scrape

import (
	"context"

	"go.uber.org/zap"

	"github.com/steamahead/jobminer/internal/metrics"
)

// PageWalker drives pagination for one crawl run. It fetches listing pages,
// extracts stubs through the site adapter, and decides whether another page
// is worth fetching.
//
// Total-page detection layers three signals in priority order: an explicit
// total reported by the adapter, a results-count divided by page-size
// estimate, and finally nothing at all, in which case the walk runs until a
// page comes back empty. Site markup changes without notice, so no single
// signal is trusted exclusively.
type PageWalker struct {
	fetcher  Fetcher
	adapter  SiteAdapter
	maxPages int
	logger   *zap.Logger

	totalPages int
}

// NewPageWalker builds a walker. maxPages is a safety bound on top of
// whatever the site reports; 0 means none.
func NewPageWalker(fetcher Fetcher, adapter SiteAdapter, maxPages int, logger *zap.Logger) *PageWalker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageWalker{
		fetcher:  fetcher,
		adapter:  adapter,
		maxPages: maxPages,
		logger:   logger,
	}
}

// NextPage fetches and parses listing page `page`. hasMore is false when the
// page is empty, unfetchable, unparseable, or when a detected page bound is
// reached. A fetch failure is deliberately indistinguishable from an empty
// page: the crawl must terminate, and the next scheduled run will recover
// whatever this one missed.
func (w *PageWalker) NextPage(ctx context.Context, page int) (stubs []Stub, hasMore bool) {
	source := w.adapter.Name()
	pageURL := w.adapter.SearchURL(page)

	body, err := w.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		w.logger.Warn("listing page fetch failed",
			zap.String("source", source),
			zap.Int("page", page),
			zap.String("url", pageURL),
			zap.Error(err),
		)
		return nil, false
	}

	stubs, info, err := w.adapter.ParseListingPage(body)
	if err != nil {
		w.logger.Warn("listing page parse failed",
			zap.String("source", source),
			zap.Int("page", page),
			zap.String("url", pageURL),
			zap.Error(err),
		)
		return nil, false
	}
	metrics.ObservePage(source)

	w.noteBound(info)

	if len(stubs) == 0 {
		w.logger.Info("listing page empty, stopping walk",
			zap.String("source", source),
			zap.Int("page", page),
		)
		return nil, false
	}

	hasMore = true
	if w.totalPages > 0 && page >= w.totalPages {
		hasMore = false
	}
	if w.maxPages > 0 && page >= w.maxPages {
		hasMore = false
	}

	w.logger.Debug("listing page parsed",
		zap.String("source", source),
		zap.Int("page", page),
		zap.Int("stubs", len(stubs)),
		zap.Int("total_pages", w.totalPages),
		zap.Bool("has_more", hasMore),
	)
	return stubs, hasMore
}

// noteBound folds fresh pagination signals into the memoized page bound. An
// explicit total always wins; the results-count estimate only fills in when
// no explicit total has been seen yet.
func (w *PageWalker) noteBound(info PageInfo) {
	if info.TotalPages > 0 {
		w.totalPages = info.TotalPages
		return
	}
	if w.totalPages == 0 && info.TotalResults > 0 && info.PageSize > 0 {
		w.totalPages = (info.TotalResults + info.PageSize - 1) / info.PageSize
	}
}
