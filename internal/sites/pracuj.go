package sites

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/steamahead/jobminer/internal/extract"
	"github.com/steamahead/jobminer/internal/hash/sha256"
	"github.com/steamahead/jobminer/internal/scrape"
)

const (
	pracujName    = "pracuj"
	pracujBaseURL = "https://www.pracuj.pl"

	// Warszawa +30km, data-oriented categories, selected contract types.
	defaultPracujSearchURL = "https://it.pracuj.pl/praca/warszawa;wp?rd=30" +
		"&et=17%2C4%2C3&its=business-analytics%2Cbig-data-science"
)

// pracujOfferID picks the numeric tail out of offer URLs like
// /praca/analityk-danych,oferta,1003456789.
var pracujOfferID = regexp.MustCompile(`,oferta,(\d+)`)

// Badge texts on the detail page all share one data-test attribute; keyword
// lists decide which field each badge feeds.
var (
	pracujLocations   = []string{"warszawa", "kraków", "wrocław", "gdańsk", "poznań"}
	pracujModes       = []string{"stacjonarna", "zdalna", "hybrydowa"}
	pracujWorkTypes   = []string{"pełny etat", "część etatu"}
	pracujLevels      = []string{"specjalista", "młodszy", "asystent", "junior", "mid", "senior"}
	pracujEmployments = []string{
		"umowa o pracę", "kontrakt b2b", "umowa zlecenie",
		"umowa o dzieło", "umowa o pracę tymczasową",
	}
)

// PracujConfig overrides the defaults baked into the adapter.
type PracujConfig struct {
	// SearchURL replaces the default filtered search. Pagination is appended
	// as a pn query parameter.
	SearchURL string
}

// Pracuj parses pracuj.pl markup. The site serves classic server-rendered
// HTML with stable data-test attributes on the detail page; the listing page
// uses build-hashed class names, so container selection is layered from the
// most specific selector down to a bare class substring.
type Pracuj struct {
	searchURL string
	taxonomy  *extract.Taxonomy
	hasher    *sha256.Hasher
}

// NewPracuj builds the adapter. A nil taxonomy falls back to the built-in
// skill vocabulary.
func NewPracuj(cfg PracujConfig, taxonomy *extract.Taxonomy) *Pracuj {
	searchURL := cfg.SearchURL
	if searchURL == "" {
		searchURL = defaultPracujSearchURL
	}
	if taxonomy == nil {
		taxonomy = extract.DefaultTaxonomy()
	}
	return &Pracuj{
		searchURL: searchURL,
		taxonomy:  taxonomy,
		hasher:    sha256.New(),
	}
}

// Name implements scrape.SiteAdapter.
func (p *Pracuj) Name() string { return pracujName }

// SearchURL implements scrape.SiteAdapter. Page 1 is the bare search URL;
// later pages append pn.
func (p *Pracuj) SearchURL(page int) string {
	if page <= 1 {
		return p.searchURL
	}
	sep := "?"
	if strings.Contains(p.searchURL, "?") {
		sep = "&"
	}
	return p.searchURL + sep + "pn=" + strconv.Itoa(page)
}

// ParseListingPage implements scrape.SiteAdapter.
func (p *Pracuj) ParseListingPage(html []byte) ([]scrape.Stub, scrape.PageInfo, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, scrape.PageInfo{}, fmt.Errorf("parse pracuj listing html: %w", err)
	}

	containers := doc.Find("#offers-list > div.listing_b1i2dnp8 > div.listing_ohw4t83")
	if containers.Length() == 0 {
		containers = doc.Find("div.listing_ohw4t83")
	}
	if containers.Length() == 0 {
		containers = doc.Find(`div[class*="listing_"]`)
	}

	var stubs []scrape.Stub
	containers.Each(func(_ int, container *goquery.Selection) {
		href, ok := container.Find("div.tiles_cobg3mp a[href]").First().Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		if !strings.HasPrefix(href, "http") {
			href = pracujBaseURL + href
		}
		stubs = append(stubs, scrape.Stub{URL: href, SourceID: p.jobID(href)})
	})

	info := scrape.PageInfo{
		TotalPages:   intText(doc.Find(`span[data-test="top-pagination-max-page-number"]`).First()),
		TotalResults: intText(doc.Find(`span[data-test="text-offersTotal"]`).First()),
		PageSize:     len(stubs),
	}
	return stubs, info, nil
}

// ParseDetailPage implements scrape.SiteAdapter.
func (p *Pracuj) ParseDetailPage(html []byte, stub scrape.Stub) (scrape.Listing, []scrape.Skill, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return scrape.Listing{}, nil, fmt.Errorf("parse pracuj detail html: %w", err)
	}

	title := strings.TrimSpace(doc.Find(`h1[data-test="text-positionName"]`).First().Text())
	if title == "" {
		return scrape.Listing{}, nil, fmt.Errorf("position name not found: %s", stub.URL)
	}

	// The employer heading carries an "O firmie" link whose text must not
	// leak into the company name.
	employer := doc.Find(`h2[data-test="text-employerName"]`).First()
	employer.Find("a").Remove()
	company := strings.TrimSpace(employer.Text())

	listing := scrape.Listing{
		JobID:   stub.SourceID,
		Source:  pracujName,
		Title:   title,
		Company: company,
		Link:    stub.URL,
	}
	if listing.JobID == "" {
		listing.JobID = p.jobID(stub.URL)
	}

	salaryText := strings.TrimSpace(doc.Find(`div[data-test="text-earningAmount"]`).First().Text())
	if minSalary, maxSalary, ok := extract.ParseSalary(salaryText); ok {
		listing.SalaryMin = &minSalary
		listing.SalaryMax = &maxSalary
	}

	p.applyBadges(doc, &listing)

	bullets := collectTexts(doc.Find(`ul[data-test="aggregate-bullet-model"] li.tkzmjn3`))
	for _, bullet := range bullets {
		if years, ok := extract.ParseYears(bullet); ok {
			listing.YearsOfExperience = &years
			break
		}
	}

	return listing, p.extractSkills(doc, bullets), nil
}

// applyBadges sorts the uniform offer-badge-title elements into the fields
// their text identifies.
func (p *Pracuj) applyBadges(doc *goquery.Document, listing *scrape.Listing) {
	doc.Find(`div[data-test="offer-badge-title"]`).Each(func(_ int, badge *goquery.Selection) {
		text := strings.TrimSpace(badge.Text())
		lower := strings.ToLower(text)
		switch {
		case containsAny(lower, pracujLocations):
			listing.Location = text
		case containsAny(lower, pracujModes):
			listing.OperatingMode = text
		case containsAny(lower, pracujWorkTypes):
			listing.WorkType = text
		case containsAny(lower, pracujLevels):
			listing.ExperienceLevel = text
		case containsAny(lower, pracujEmployments):
			listing.EmploymentType = text
		}
	})
}

// extractSkills reads the dedicated skill list and, when it is thin, falls
// back to scanning the requirement bullets for known vocabulary. Raw texts
// that do not canonicalize are dropped; the taxonomy is the contract for
// what counts as a skill on this site.
func (p *Pracuj) extractSkills(doc *goquery.Document, bullets []string) []scrape.Skill {
	var raw []string
	doc.Find(`ul[data-test="aggregate-open-dictionary-model"] li.catru5k`).Each(func(_ int, item *goquery.Selection) {
		if text := strings.ToLower(strings.TrimSpace(item.Text())); text != "" {
			raw = append(raw, text)
		}
	})

	var skills []scrape.Skill
	seen := map[string]bool{}
	add := func(canonical string) {
		if seen[canonical] {
			return
		}
		seen[canonical] = true
		skills = append(skills, scrape.Skill{
			Name:     canonical,
			Category: p.taxonomy.Categorize(canonical),
		})
	}

	for _, text := range raw {
		if canonical, ok := p.taxonomy.Canonicalize(text); ok {
			add(canonical)
		}
	}

	if len(skills) < 2 && len(bullets) > 0 {
		for _, canonical := range p.taxonomy.FindAll(strings.Join(bullets, " ")) {
			add(canonical)
		}
	}
	return skills
}

// jobID prefers the site's numeric offer ID; otherwise it falls back to a
// digest of the canonical URL so a listing keeps one identity across runs.
func (p *Pracuj) jobID(offerURL string) string {
	if m := pracujOfferID.FindStringSubmatch(offerURL); m != nil {
		return m[1]
	}
	digest, err := p.hasher.HashString(scrape.CanonicalURL(offerURL))
	if err != nil {
		return offerURL
	}
	return digest[:16]
}

// intText parses the first integer in an element's text, tolerating
// thousand separators like "1 234".
func intText(sel *goquery.Selection) int {
	var digits strings.Builder
	for _, r := range sel.Text() {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return n
}

func collectTexts(sel *goquery.Selection) []string {
	var out []string
	sel.Each(func(_ int, item *goquery.Selection) {
		if text := strings.TrimSpace(item.Text()); text != "" {
			out = append(out, text)
		}
	})
	return out
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
