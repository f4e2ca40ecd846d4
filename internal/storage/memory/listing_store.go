package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/steamahead/jobminer/internal/scrape"
)

// ListingStore is the in-memory twin of the Postgres listing store, for
// development runs and tests.
type ListingStore struct {
	mu     sync.RWMutex
	nextID int64
	ids    map[string]int64
	rows   map[int64]scrape.Listing
	skills map[int64]map[string]scrape.Skill
}

// NewListingStore constructs an empty store.
func NewListingStore() *ListingStore {
	return &ListingStore{
		ids:    make(map[string]int64),
		rows:   make(map[int64]scrape.Listing),
		skills: make(map[int64]map[string]scrape.Skill),
	}
}

func listingKey(jobID, source string) string {
	return jobID + "|" + source
}

// Upsert stores one listing keyed on (jobID, source), assigning a surrogate
// ID on first insert.
func (s *ListingStore) Upsert(_ context.Context, listing scrape.Listing) (int64, bool, error) {
	if listing.JobID == "" {
		return 0, false, errors.New("job id is required")
	}
	if listing.Source == "" {
		return 0, false, errors.New("source is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := listingKey(listing.JobID, listing.Source)
	id, exists := s.ids[key]
	if !exists {
		s.nextID++
		id = s.nextID
		s.ids[key] = id
	}
	s.rows[id] = listing
	return id, !exists, nil
}

// UpsertSkills records skills for a previously upserted listing. Duplicate
// names are absorbed the way the Postgres conflict target absorbs them.
func (s *ListingStore) UpsertSkills(_ context.Context, shortID int64, jobID, source string, skills []scrape.Skill) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[shortID]; !ok {
		return errors.New("listing not found")
	}
	bucket := s.skills[shortID]
	if bucket == nil {
		bucket = make(map[string]scrape.Skill)
		s.skills[shortID] = bucket
	}
	for _, skill := range skills {
		if skill.Name == "" {
			continue
		}
		if _, dup := bucket[skill.Name]; dup {
			continue
		}
		bucket[skill.Name] = skill
	}
	_, _ = jobID, source
	return nil
}

// KnownLinks returns links of listings for source scraped at or after since.
func (s *ListingStore) KnownLinks(_ context.Context, source string, since time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var links []string
	for _, listing := range s.rows {
		if listing.Source == source && !listing.ScrapedAt.Before(since) {
			links = append(links, listing.Link)
		}
	}
	sort.Strings(links)
	return links, nil
}

// Get looks a listing up by its natural key.
func (s *ListingStore) Get(jobID, source string) (scrape.Listing, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.ids[listingKey(jobID, source)]
	if !ok {
		return scrape.Listing{}, false
	}
	return s.rows[id], true
}

// Skills returns the recorded skills of one listing, sorted by name.
func (s *ListingStore) Skills(shortID int64) []scrape.Skill {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bucket := s.skills[shortID]
	out := make([]scrape.Skill, 0, len(bucket))
	for _, skill := range bucket {
		out = append(out, skill)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len reports how many listings are stored.
func (s *ListingStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}
