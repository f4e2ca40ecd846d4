package scrape

import (
	"net/url"
	"strings"
)

// trackingParams are query parameters that vary between visits to the same
// posting and must not defeat deduplication.
var trackingParams = map[string]bool{
	"gclid":    true,
	"fbclid":   true,
	"ref":      true,
	"s":        true,
	"searchid": true,
}

// CanonicalURL normalizes a listing URL for dedup comparisons: lowercased
// scheme and host, fragment dropped, tracking parameters removed, trailing
// slash stripped. Unparseable input is returned trimmed so dedup still works
// on exact matches.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.TrimSuffix(raw, "/")
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for key := range q {
		lower := strings.ToLower(key)
		if trackingParams[lower] || strings.HasPrefix(lower, "utm_") {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()

	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}
