package sites

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/steamahead/jobminer/internal/scrape"
)

var _ scrape.SiteAdapter = (*Justjoin)(nil)

const justjoinListingHTML = `<!DOCTYPE html>
<html><body>
<a class="offer-card" href="/job-offer/acme-junior-data-analyst">Junior Data Analyst</a>
<a class="offer-card" href="https://justjoin.it/job-offer/globex-data-engineer">Data Engineer</a>
<a class="not-an-offer" href="/about">About</a>
</body></html>`

const justjoinDetailHTML = `<!DOCTYPE html>
<html><head>
<script type="application/ld+json">
{
  "@context": "https://schema.org/",
  "@type": "JobPosting",
  "title": "Junior Data Analyst",
  "datePosted": "2025-11-08",
  "skills": "SQL, Python, English",
  "hiringOrganization": {"@type": "Organization", "name": "Acme"},
  "jobLocation": {"@type": "Place", "address": {"@type": "PostalAddress", "addressLocality": "Warszawa"}}
}
</script>
</head><body>
<span class="mui-mrzdjb"><span>7&nbsp;000</span> - <span>9&nbsp;500</span> PLN/month</span>
<div class="MuiBox-root mui-1ihbss1">Praca zdalna</div>
<div class="MuiBox-root mui-1ihbss1">Pełny etat</div>
<div class="MuiBox-root mui-1ihbss1">Junior</div>
<div class="MuiBox-root mui-1ihbss1">B2B</div>
<div>
  <strong>Oczekiwania:</strong>
  <ul>
    <li>Wykształcenie kierunkowe</li>
    <li>2 lata doświadczenia w analizie danych</li>
  </ul>
</div>
</body></html>`

func TestJustjoinSearchURL(t *testing.T) {
	t.Parallel()

	j := NewJustjoin(JustjoinConfig{}, nil)
	require.Equal(t, defaultJustjoinSearchURL+"&from=0", j.SearchURL(1))
	require.Equal(t, defaultJustjoinSearchURL+"&from=48", j.SearchURL(3))

	custom := NewJustjoin(JustjoinConfig{SearchURL: "https://justjoin.it/job-offers/remote", PageSize: 10}, nil)
	require.Equal(t, "https://justjoin.it/job-offers/remote?from=20", custom.SearchURL(3))
}

func TestJustjoinParseListingPage(t *testing.T) {
	t.Parallel()

	j := NewJustjoin(JustjoinConfig{}, nil)
	stubs, info, err := j.ParseListingPage([]byte(justjoinListingHTML))
	require.NoError(t, err)

	require.Len(t, stubs, 2, "only offer-card anchors count")
	require.Equal(t, "https://justjoin.it/job-offer/acme-junior-data-analyst", stubs[0].URL)
	require.Equal(t, "acme-junior-data-analyst", stubs[0].SourceID)
	require.Equal(t, "https://justjoin.it/job-offer/globex-data-engineer", stubs[1].URL)
	require.Equal(t, "globex-data-engineer", stubs[1].SourceID)

	require.Zero(t, info.TotalPages, "the site reports no page count")
	require.Zero(t, info.TotalResults)
	require.Equal(t, defaultJustjoinPageSize, info.PageSize)
}

func TestJustjoinParseDetailPage(t *testing.T) {
	t.Parallel()

	j := NewJustjoin(JustjoinConfig{}, nil)
	stub := scrape.Stub{
		URL:      "https://justjoin.it/job-offer/acme-junior-data-analyst",
		SourceID: "acme-junior-data-analyst",
	}

	listing, skills, err := j.ParseDetailPage([]byte(justjoinDetailHTML), stub)
	require.NoError(t, err)

	require.Equal(t, "acme-junior-data-analyst", listing.JobID)
	require.Equal(t, "justjoin", listing.Source)
	require.Equal(t, "Junior Data Analyst", listing.Title)
	require.Equal(t, "Acme", listing.Company)
	require.Equal(t, "Warszawa", listing.Location)
	require.Equal(t, stub.URL, listing.Link)

	require.NotNil(t, listing.SalaryMin)
	require.NotNil(t, listing.SalaryMax)
	require.Equal(t, 7000, *listing.SalaryMin)
	require.Equal(t, 9500, *listing.SalaryMax)

	require.Equal(t, "Praca zdalna", listing.OperatingMode)
	require.Equal(t, "Pełny etat", listing.WorkType)
	require.Equal(t, "Junior", listing.ExperienceLevel)
	require.Equal(t, "B2B", listing.EmploymentType)

	require.NotNil(t, listing.YearsOfExperience)
	require.Equal(t, 2, *listing.YearsOfExperience)

	require.Equal(t, []scrape.Skill{
		{Name: "sql", Category: "Database"},
		{Name: "python", Category: "Programming"},
		{Name: "english", Category: "Other"},
	}, skills, "curated tags outside the vocabulary keep their name under Other")
}

func TestJustjoinDetailSkillsArray(t *testing.T) {
	t.Parallel()

	html := `<script type="application/ld+json">
	{"@type":"JobPosting","title":"Analyst","skills":["Power BI","Excel","Power BI"]}
	</script>`

	j := NewJustjoin(JustjoinConfig{}, nil)
	_, skills, err := j.ParseDetailPage([]byte(html), scrape.Stub{URL: "https://justjoin.it/job-offer/x", SourceID: "x"})
	require.NoError(t, err)

	require.Equal(t, []scrape.Skill{
		{Name: "power bi", Category: "Visualization"},
		{Name: "excel", Category: "Microsoft BI & Excel"},
	}, skills)
}

func TestJustjoinDetailSkipsForeignJSONLD(t *testing.T) {
	t.Parallel()

	html := `
	<script type="application/ld+json">{"@type":"BreadcrumbList","itemListElement":[]}</script>
	<script type="application/ld+json">{"@type":"JobPosting","title":"Analyst","hiringOrganization":{"name":"Acme"}}</script>`

	j := NewJustjoin(JustjoinConfig{}, nil)
	listing, _, err := j.ParseDetailPage([]byte(html), scrape.Stub{URL: "https://justjoin.it/job-offer/x", SourceID: "x"})
	require.NoError(t, err)
	require.Equal(t, "Analyst", listing.Title)
	require.Equal(t, "Acme", listing.Company)
}

func TestJustjoinDetailMissingPosting(t *testing.T) {
	t.Parallel()

	j := NewJustjoin(JustjoinConfig{}, nil)

	_, _, err := j.ParseDetailPage([]byte(`<html><body>on vacation</body></html>`),
		scrape.Stub{URL: "https://justjoin.it/job-offer/x"})
	require.ErrorContains(t, err, "json-ld")

	_, _, err = j.ParseDetailPage([]byte(`<script type="application/ld+json">{"@type":"JobPosting"}</script>`),
		scrape.Stub{URL: "https://justjoin.it/job-offer/x"})
	require.ErrorContains(t, err, "no title")
}

func TestJustjoinJobID(t *testing.T) {
	t.Parallel()

	require.Equal(t, "acme-analyst", justjoinJobID("https://justjoin.it/job-offer/acme-analyst"))
	require.Equal(t, "acme-analyst", justjoinJobID("https://justjoin.it/job-offer/acme-analyst/"))
	require.Equal(t, "acme-analyst", justjoinJobID("/job-offer/acme-analyst"))
}
