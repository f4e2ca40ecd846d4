package scrape

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/steamahead/jobminer/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Init()
	m.Run()
}

// fakeSite plays both Fetcher and SiteAdapter: Fetch echoes the URL back as
// the body, and the parse methods decode that URL against scripted pages and
// details. It lets tests wire a whole crawl without any HTTP.
type fakeSite struct {
	name string

	pages     map[int][]Stub
	infos     map[int]PageInfo
	details   map[string]detailScript
	fetchErrs map[string]error
	parseErrs map[int]error

	mu          sync.Mutex
	fetched     []string
	inFlight    int
	maxInFlight int
}

type detailScript struct {
	listing  Listing
	skills   []Skill
	parseErr error
}

func newFakeSite(name string) *fakeSite {
	return &fakeSite{
		name:      name,
		pages:     map[int][]Stub{},
		infos:     map[int]PageInfo{},
		details:   map[string]detailScript{},
		fetchErrs: map[string]error{},
		parseErrs: map[int]error{},
	}
}

// addPage scripts n stubs for a page, each with a default detail result.
func (s *fakeSite) addPage(page, n int) {
	stubs := make([]Stub, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%d-%d", page, i)
		stub := Stub{URL: s.offerURL(id), SourceID: id}
		stubs = append(stubs, stub)
		s.details[stub.URL] = detailScript{
			listing: Listing{
				JobID:  id,
				Source: s.name,
				Title:  "Data Analyst " + id,
				Link:   stub.URL,
			},
			skills: []Skill{{Name: "sql", Category: "Database"}},
		}
	}
	s.pages[page] = stubs
}

func (s *fakeSite) offerURL(id string) string {
	return fmt.Sprintf("https://%s.test/offer/%s", s.name, id)
}

func (s *fakeSite) Fetch(_ context.Context, url string) ([]byte, error) {
	s.mu.Lock()
	s.fetched = append(s.fetched, url)
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	s.mu.Unlock()

	time.Sleep(time.Millisecond)

	s.mu.Lock()
	s.inFlight--
	err := s.fetchErrs[url]
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return []byte(url), nil
}

func (s *fakeSite) fetchCount(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, u := range s.fetched {
		if u == url {
			n++
		}
	}
	return n
}

func (s *fakeSite) Name() string { return s.name }

func (s *fakeSite) SearchURL(page int) string {
	return fmt.Sprintf("https://%s.test/search?pn=%d", s.name, page)
}

func (s *fakeSite) ParseListingPage(html []byte) ([]Stub, PageInfo, error) {
	url := string(html)
	idx := strings.LastIndex(url, "pn=")
	if idx < 0 {
		return nil, PageInfo{}, errors.New("not a listing page")
	}
	page, err := strconv.Atoi(url[idx+3:])
	if err != nil {
		return nil, PageInfo{}, err
	}
	if parseErr := s.parseErrs[page]; parseErr != nil {
		return nil, PageInfo{}, parseErr
	}
	return s.pages[page], s.infos[page], nil
}

func (s *fakeSite) ParseDetailPage(html []byte, _ Stub) (Listing, []Skill, error) {
	script, ok := s.details[string(html)]
	if !ok {
		return Listing{}, nil, errors.New("unknown detail page")
	}
	if script.parseErr != nil {
		return Listing{}, nil, script.parseErr
	}
	return script.listing, script.skills, nil
}

// fakeListingStore keeps upserted rows keyed by (jobID, source).
type fakeListingStore struct {
	mu       sync.Mutex
	rows     map[string]Listing
	skills   map[string][]Skill
	nextID   int64
	ids      map[string]int64
	failJobs map[string]error
	known    []string
	knownErr error
}

func newFakeListingStore() *fakeListingStore {
	return &fakeListingStore{
		rows:     map[string]Listing{},
		skills:   map[string][]Skill{},
		ids:      map[string]int64{},
		failJobs: map[string]error{},
	}
}

func (f *fakeListingStore) key(jobID, source string) string {
	return jobID + "|" + source
}

func (f *fakeListingStore) Upsert(_ context.Context, listing Listing) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failJobs[listing.JobID]; err != nil {
		return 0, false, err
	}
	k := f.key(listing.JobID, listing.Source)
	id, exists := f.ids[k]
	if !exists {
		f.nextID++
		id = f.nextID
		f.ids[k] = id
	}
	f.rows[k] = listing
	return id, !exists, nil
}

func (f *fakeListingStore) UpsertSkills(_ context.Context, shortID int64, jobID, source string, skills []Skill) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.skills[f.key(jobID, source)] = append([]Skill(nil), skills...)
	_ = shortID
	return nil
}

func (f *fakeListingStore) KnownLinks(_ context.Context, _ string, _ time.Time) ([]string, error) {
	if f.knownErr != nil {
		return nil, f.knownErr
	}
	return f.known, nil
}

func (f *fakeListingStore) rowCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

// fakeCheckpoints is an in-memory CheckpointStore.
type fakeCheckpoints struct {
	mu      sync.Mutex
	pages   map[string]int
	saveErr error
}

func newFakeCheckpoints() *fakeCheckpoints {
	return &fakeCheckpoints{pages: map[string]int{}}
}

func (f *fakeCheckpoints) Load(_ context.Context, crawlerID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if page, ok := f.pages[crawlerID]; ok {
		return page
	}
	return 1
}

func (f *fakeCheckpoints) Save(_ context.Context, crawlerID string, page int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.pages[crawlerID] = page
	return nil
}

type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time {
	if c.now.IsZero() {
		return time.Date(2025, 11, 12, 8, 0, 0, 0, time.UTC)
	}
	return c.now
}

type fakeIDs struct{ n int }

func (g *fakeIDs) NewID() (string, error) {
	g.n++
	return fmt.Sprintf("00000000-0000-7000-8000-%012d", g.n), nil
}
