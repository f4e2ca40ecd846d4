// Package scrape implements the crawl orchestration core: pagination
// traversal with layered page-bound detection, per-run URL deduplication,
// a chunked detail-page pool, and the coordinator that ties them to
// checkpointing and persistence.
package scrape

import "time"

// Status marks the lifecycle state of a persisted listing.
type Status string

// StatusActive is the state assigned to every freshly scraped listing.
const StatusActive Status = "Active"

// Stub is a minimal reference to a job posting discovered on a listing page.
// It lives only between the page walk and the detail fetch.
type Stub struct {
	URL      string
	SourceID string
}

// PageInfo carries the raw pagination signals a site adapter managed to read
// off a listing page. Zero values mean "signal not present"; the walker owns
// the layering between them.
type PageInfo struct {
	TotalPages   int
	TotalResults int
	PageSize     int
}

// Listing is the normalized job record handed to the persistence layer.
// (JobID, Source) is the natural key the store upserts on; the surrogate
// numeric key is assigned by the store and threaded into skill writes.
type Listing struct {
	JobID             string
	Source            string
	Title             string
	Company           string
	Link              string
	SalaryMin         *int
	SalaryMax         *int
	Location          string
	OperatingMode     string
	WorkType          string
	ExperienceLevel   string
	EmploymentType    string
	YearsOfExperience *int
	ScrapedAt         time.Time
	Status            Status
}

// Skill is one canonical skill attached to a listing.
type Skill struct {
	Name     string
	Category string
}

// Summary aggregates what one coordinator run accomplished.
type Summary struct {
	RunID            string
	PagesProcessed   int
	StubsSeen        int
	StubsSkipped     int
	RecordsProcessed int
	RecordsPersisted int
	RecordsFailed    int
	SkillsWritten    int
}
