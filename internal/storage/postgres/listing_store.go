package postgres

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/steamahead/jobminer/internal/scrape"
)

// Column caps matching the widths created by Migrate. Oversized values are
// truncated rather than rejected; a listing with a novel-length title is
// still a listing.
const (
	maxJobIDLen    = 100
	maxSourceLen   = 50
	maxTextLen     = 255
	maxLinkLen     = 500
	maxEnumLen     = 50
	maxStatusLen   = 20
	maxSkillLen    = 100
	maxCategoryLen = 50
)

// ListingStore persists normalized listings and their skills. It implements
// scrape.ListingStore.
type ListingStore struct {
	db DB
}

// NewListingStore wraps an open pool or a mock.
func NewListingStore(db DB) (*ListingStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	return &ListingStore{db: db}, nil
}

const upsertListingSQL = `
INSERT INTO job_listings (
	job_id, source, title, company, link,
	salary_min, salary_max, location, operating_mode, work_type,
	experience_level, employment_type, years_of_experience,
	scraped_at, status
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15
)
ON CONFLICT (job_id, source) DO UPDATE SET
	title = EXCLUDED.title,
	company = EXCLUDED.company,
	link = EXCLUDED.link,
	salary_min = EXCLUDED.salary_min,
	salary_max = EXCLUDED.salary_max,
	location = EXCLUDED.location,
	operating_mode = EXCLUDED.operating_mode,
	work_type = EXCLUDED.work_type,
	experience_level = EXCLUDED.experience_level,
	employment_type = EXCLUDED.employment_type,
	years_of_experience = EXCLUDED.years_of_experience,
	scraped_at = EXCLUDED.scraped_at,
	status = EXCLUDED.status
RETURNING id, (xmax = 0) AS inserted`

// Upsert writes one listing keyed on (job_id, source) and reports the
// surrogate ID plus whether the row is new. xmax = 0 distinguishes a fresh
// insert from a conflict update without a second round trip.
func (s *ListingStore) Upsert(ctx context.Context, listing scrape.Listing) (int64, bool, error) {
	if listing.JobID == "" {
		return 0, false, fmt.Errorf("job id is required")
	}
	if listing.Source == "" {
		return 0, false, fmt.Errorf("source is required")
	}

	var (
		shortID  int64
		inserted bool
	)
	err := s.db.QueryRow(ctx, upsertListingSQL,
		truncate(listing.JobID, maxJobIDLen),
		truncate(listing.Source, maxSourceLen),
		truncate(listing.Title, maxTextLen),
		truncate(listing.Company, maxTextLen),
		truncate(listing.Link, maxLinkLen),
		listing.SalaryMin,
		listing.SalaryMax,
		truncate(listing.Location, maxTextLen),
		truncate(listing.OperatingMode, maxEnumLen),
		truncate(listing.WorkType, maxEnumLen),
		truncate(listing.ExperienceLevel, maxEnumLen),
		truncate(listing.EmploymentType, maxEnumLen),
		listing.YearsOfExperience,
		listing.ScrapedAt,
		truncate(string(listing.Status), maxStatusLen),
	).Scan(&shortID, &inserted)
	if err != nil {
		return 0, false, fmt.Errorf("upsert listing %s/%s: %w", listing.Source, listing.JobID, err)
	}
	return shortID, inserted, nil
}

const upsertSkillSQL = `
INSERT INTO job_skills (listing_id, job_id, source, skill_name, skill_category)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (job_id, source, skill_name) DO NOTHING`

// UpsertSkills inserts the skills of one persisted listing. Re-running a
// crawl replays the same skills; the conflict target makes that a no-op.
func (s *ListingStore) UpsertSkills(ctx context.Context, shortID int64, jobID, source string, skills []scrape.Skill) error {
	for _, skill := range skills {
		if skill.Name == "" {
			continue
		}
		_, err := s.db.Exec(ctx, upsertSkillSQL,
			shortID,
			truncate(jobID, maxJobIDLen),
			truncate(source, maxSourceLen),
			truncate(skill.Name, maxSkillLen),
			truncate(skill.Category, maxCategoryLen),
		)
		if err != nil {
			return fmt.Errorf("upsert skill %q for %s/%s: %w", skill.Name, source, jobID, err)
		}
	}
	return nil
}

const knownLinksSQL = `
SELECT link FROM job_listings
WHERE source = $1 AND scraped_at >= $2`

// KnownLinks returns the links of listings scraped for source since the
// given time, used to pre-seed the per-run deduplicator.
func (s *ListingStore) KnownLinks(ctx context.Context, source string, since time.Time) ([]string, error) {
	rows, err := s.db.Query(ctx, knownLinksSQL, source, since)
	if err != nil {
		return nil, fmt.Errorf("query known links: %w", err)
	}
	defer rows.Close()

	var links []string
	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			return nil, fmt.Errorf("scan link row: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate link rows: %w", err)
	}
	return links, nil
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
