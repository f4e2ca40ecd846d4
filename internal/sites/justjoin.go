package sites

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/steamahead/jobminer/internal/extract"
	"github.com/steamahead/jobminer/internal/scrape"
)

const (
	justjoinName    = "justjoin"
	justjoinBaseURL = "https://justjoin.it"

	defaultJustjoinSearchURL = "https://justjoin.it/job-offers/warszawa/data" +
		"?experience-level=junior&orderBy=DESC&sortBy=published"
	defaultJustjoinPageSize = 24
)

// JustjoinConfig overrides the defaults baked into the adapter.
type JustjoinConfig struct {
	// SearchURL replaces the default filtered search. Pagination is appended
	// as a from offset parameter.
	SearchURL string
	// PageSize is the offer count per listing page, used to translate page
	// numbers into offsets. Default 24.
	PageSize int
}

// Justjoin parses justjoin.it markup. Detail pages embed a schema.org
// JobPosting JSON-LD block that carries the stable fields; the styled DOM
// (hashed MUI class names) only fills in what the JSON-LD omits.
type Justjoin struct {
	searchURL string
	pageSize  int
	taxonomy  *extract.Taxonomy
}

// NewJustjoin builds the adapter. A nil taxonomy falls back to the built-in
// skill vocabulary.
func NewJustjoin(cfg JustjoinConfig, taxonomy *extract.Taxonomy) *Justjoin {
	searchURL := cfg.SearchURL
	if searchURL == "" {
		searchURL = defaultJustjoinSearchURL
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultJustjoinPageSize
	}
	if taxonomy == nil {
		taxonomy = extract.DefaultTaxonomy()
	}
	return &Justjoin{
		searchURL: searchURL,
		pageSize:  pageSize,
		taxonomy:  taxonomy,
	}
}

// Name implements scrape.SiteAdapter.
func (j *Justjoin) Name() string { return justjoinName }

// SearchURL implements scrape.SiteAdapter. The site paginates by offset, not
// page number.
func (j *Justjoin) SearchURL(page int) string {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * j.pageSize
	sep := "?"
	if strings.Contains(j.searchURL, "?") {
		sep = "&"
	}
	return j.searchURL + sep + "from=" + strconv.Itoa(offset)
}

// ParseListingPage implements scrape.SiteAdapter. The site reports no total
// count anywhere in the markup, so the walk runs until a page comes back
// empty.
func (j *Justjoin) ParseListingPage(html []byte) ([]scrape.Stub, scrape.PageInfo, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, scrape.PageInfo{}, fmt.Errorf("parse justjoin listing html: %w", err)
	}

	var stubs []scrape.Stub
	doc.Find("a.offer-card").Each(func(_ int, card *goquery.Selection) {
		href, ok := card.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		if !strings.HasPrefix(href, "http") {
			href = justjoinBaseURL + href
		}
		stubs = append(stubs, scrape.Stub{URL: href, SourceID: justjoinJobID(href)})
	})

	return stubs, scrape.PageInfo{PageSize: j.pageSize}, nil
}

// jobPosting is the slice of schema.org JobPosting this adapter reads.
type jobPosting struct {
	Type               string `json:"@type"`
	Title              string `json:"title"`
	DatePosted         string `json:"datePosted"`
	Skills             any    `json:"skills"`
	HiringOrganization struct {
		Name string `json:"name"`
	} `json:"hiringOrganization"`
	JobLocation struct {
		Address struct {
			AddressLocality string `json:"addressLocality"`
		} `json:"address"`
	} `json:"jobLocation"`
}

// ParseDetailPage implements scrape.SiteAdapter.
func (j *Justjoin) ParseDetailPage(html []byte, stub scrape.Stub) (scrape.Listing, []scrape.Skill, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return scrape.Listing{}, nil, fmt.Errorf("parse justjoin detail html: %w", err)
	}

	posting, ok := findJobPosting(doc)
	if !ok {
		return scrape.Listing{}, nil, fmt.Errorf("job posting json-ld not found: %s", stub.URL)
	}
	if strings.TrimSpace(posting.Title) == "" {
		return scrape.Listing{}, nil, fmt.Errorf("job posting has no title: %s", stub.URL)
	}

	listing := scrape.Listing{
		JobID:    stub.SourceID,
		Source:   justjoinName,
		Title:    strings.TrimSpace(posting.Title),
		Company:  strings.TrimSpace(posting.HiringOrganization.Name),
		Link:     stub.URL,
		Location: strings.TrimSpace(posting.JobLocation.Address.AddressLocality),
	}
	if listing.JobID == "" {
		listing.JobID = justjoinJobID(stub.URL)
	}

	if salaryText := doc.Find("span.mui-mrzdjb").First().Text(); salaryText != "" {
		if minSalary, maxSalary, ok := extract.ParseSalary(salaryText); ok {
			listing.SalaryMin = &minSalary
			listing.SalaryMax = &maxSalary
		}
	}

	// The info boxes render in a fixed order; position is the only signal.
	meta := doc.Find("div.MuiBox-root.mui-1ihbss1")
	listing.OperatingMode = strings.TrimSpace(meta.Eq(0).Text())
	listing.WorkType = strings.TrimSpace(meta.Eq(1).Text())
	listing.ExperienceLevel = strings.TrimSpace(meta.Eq(2).Text())
	listing.EmploymentType = strings.TrimSpace(meta.Eq(3).Text())

	if years, ok := j.expectationYears(doc); ok {
		listing.YearsOfExperience = &years
	}

	return listing, j.extractSkills(posting), nil
}

// expectationYears walks the list following the "Oczekiwania" heading and
// parses the first bullet that names an experience requirement.
func (j *Justjoin) expectationYears(doc *goquery.Document) (int, bool) {
	years, found := 0, false
	doc.Find("strong").EachWithBreak(func(_ int, heading *goquery.Selection) bool {
		if !strings.Contains(heading.Text(), "Oczekiwania") {
			return true
		}
		list := heading.NextAllFiltered("ul").First()
		if list.Length() == 0 {
			list = heading.Parent().NextAllFiltered("ul").First()
		}
		list.Find("li").EachWithBreak(func(_ int, item *goquery.Selection) bool {
			if y, ok := extract.ParseYears(item.Text()); ok {
				years, found = y, true
				return false
			}
			return true
		})
		return false
	})
	return years, found
}

// extractSkills reads the JSON-LD skills field, which the site emits either
// as a comma-joined string or as an array. Known names are canonicalized;
// unknown ones are kept verbatim under the default category, because this
// board's skill tags are curated rather than free text.
func (j *Justjoin) extractSkills(posting jobPosting) []scrape.Skill {
	var raw []string
	switch v := posting.Skills.(type) {
	case string:
		raw = strings.Split(v, ",")
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	}

	var skills []scrape.Skill
	seen := map[string]bool{}
	for _, text := range raw {
		name := strings.ToLower(strings.TrimSpace(text))
		if name == "" {
			continue
		}
		category := extract.OtherCategory
		if canonical, ok := j.taxonomy.Canonicalize(name); ok {
			name = canonical
			category = j.taxonomy.Categorize(canonical)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		skills = append(skills, scrape.Skill{Name: name, Category: category})
	}
	return skills
}

// findJobPosting scans the document's JSON-LD blocks for the JobPosting one.
// Blocks typed as something else are skipped; an untyped block is kept as a
// fallback in case the site drops the @type marker.
func findJobPosting(doc *goquery.Document) (jobPosting, bool) {
	var posting, fallback jobPosting
	found, haveFallback := false, false
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, script *goquery.Selection) bool {
		var candidate jobPosting
		if err := json.Unmarshal([]byte(script.Text()), &candidate); err != nil {
			return true
		}
		if candidate.Type == "JobPosting" {
			posting = candidate
			found = true
			return false
		}
		if candidate.Type == "" && !haveFallback {
			fallback = candidate
			haveFallback = true
		}
		return true
	})
	if found {
		return posting, true
	}
	return fallback, haveFallback
}

// justjoinJobID is the last path segment of the offer URL, the site's own
// offer slug.
func justjoinJobID(offerURL string) string {
	path := offerURL
	if u, err := url.Parse(offerURL); err == nil && u.Path != "" {
		path = u.Path
	}
	path = strings.TrimSuffix(path, "/")
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		path = path[idx+1:]
	}
	return path
}
