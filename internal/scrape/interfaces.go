package scrape

import (
	"context"
	"time"
)

// Fetcher retrieves one URL under the shared politeness budget. Retry and
// backoff live behind this interface; an error means attempts are exhausted
// and the caller should skip the URL, never abort the crawl.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// SiteAdapter supplies the site-specific pieces of a crawl: URL construction
// and HTML extraction. Implementations must be stateless and safe for
// concurrent use by the detail pool.
type SiteAdapter interface {
	// Name identifies the source and doubles as the persisted source label.
	Name() string
	// SearchURL builds the listing-page URL for a 1-based page number.
	SearchURL(page int) string
	// ParseListingPage extracts detail-page stubs and whatever pagination
	// signals the markup exposes.
	ParseListingPage(html []byte) ([]Stub, PageInfo, error)
	// ParseDetailPage extracts the normalized record and its skills from a
	// detail page.
	ParseDetailPage(html []byte, stub Stub) (Listing, []Skill, error)
}

// ListingStore is the persistence collaborator. Upsert is keyed on
// (JobID, Source) and must be idempotent; skill writes for a record follow
// that record's own successful upsert.
type ListingStore interface {
	// Upsert inserts or refreshes a listing and reports the surrogate key
	// plus whether a new row was created.
	Upsert(ctx context.Context, listing Listing) (shortID int64, inserted bool, err error)
	// UpsertSkills attaches skills to a persisted listing.
	UpsertSkills(ctx context.Context, shortID int64, jobID, source string, skills []Skill) error
	// KnownLinks reports detail-page links persisted for a source since the
	// given time, used to pre-seed the deduplicator.
	KnownLinks(ctx context.Context, source string, since time.Time) ([]string, error)
}

// CheckpointStore persists per-crawler resume points. Load never fails: a
// missing or unreadable checkpoint means page 1.
type CheckpointStore interface {
	Load(ctx context.Context, crawlerID string) int
	Save(ctx context.Context, crawlerID string, page int) error
}

// Archiver optionally snapshots raw detail-page HTML for later re-parsing.
type Archiver interface {
	Save(ctx context.Context, source, url string, body []byte) error
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator mints run identifiers.
type IDGenerator interface {
	NewID() (string, error)
}
