package postgres

import (
	"context"
	"fmt"
)

// migrations is applied in order on every start. Each statement is
// idempotent, so there is no version bookkeeping to drift.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS job_listings (
		id BIGSERIAL PRIMARY KEY,
		job_id VARCHAR(100) NOT NULL,
		source VARCHAR(50) NOT NULL,
		title VARCHAR(255) NOT NULL,
		company VARCHAR(255),
		link VARCHAR(500) NOT NULL,
		salary_min INTEGER,
		salary_max INTEGER,
		location VARCHAR(255),
		operating_mode VARCHAR(50),
		work_type VARCHAR(50),
		experience_level VARCHAR(50),
		employment_type VARCHAR(50),
		years_of_experience INTEGER,
		scraped_at TIMESTAMPTZ NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'Active',
		UNIQUE (job_id, source)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_job_listings_source_scraped
		ON job_listings (source, scraped_at);`,
	`CREATE TABLE IF NOT EXISTS job_skills (
		id BIGSERIAL PRIMARY KEY,
		listing_id BIGINT NOT NULL REFERENCES job_listings(id) ON DELETE CASCADE,
		job_id VARCHAR(100) NOT NULL,
		source VARCHAR(50) NOT NULL,
		skill_name VARCHAR(100) NOT NULL,
		skill_category VARCHAR(50) NOT NULL,
		UNIQUE (job_id, source, skill_name)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_job_skills_listing
		ON job_skills (listing_id);`,
	`CREATE TABLE IF NOT EXISTS crawl_runs (
		id UUID PRIMARY KEY,
		source VARCHAR(50) NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ,
		status VARCHAR(20) NOT NULL,
		start_page INTEGER NOT NULL DEFAULT 1,
		pages BIGINT NOT NULL DEFAULT 0,
		stubs BIGINT NOT NULL DEFAULT 0,
		kept BIGINT NOT NULL DEFAULT 0,
		records BIGINT NOT NULL DEFAULT 0,
		skills BIGINT NOT NULL DEFAULT 0,
		error_message TEXT,
		updated_at TIMESTAMPTZ
	);`,
	`CREATE INDEX IF NOT EXISTS idx_crawl_runs_source_started
		ON crawl_runs (source, started_at DESC);`,
}

// Migrate creates the tables and indexes the stores expect.
func Migrate(ctx context.Context, db DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration %d: %w", i+1, err)
		}
	}
	return nil
}
