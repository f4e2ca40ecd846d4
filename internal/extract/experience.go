package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// yearsPatterns are tried in order against lowercased text. The range form
// goes first so "3-5 lat doświadczenia" yields the lower bound instead of
// whichever figure a looser pattern happens to grab.
var yearsPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+)[-+](\d+)\s*lat\w*\s*doświadczeni`),
	regexp.MustCompile(`(\d+)\+\s*lat\w*\s*doświadczeni`),
	regexp.MustCompile(`(\d+)\s*lat\w*\s*doświadczeni`),
	regexp.MustCompile(`doświadczeni\w*\s*min[.:]?\s*(\d+)\s*lat`),
	regexp.MustCompile(`doświadczeni\w*\s*(\d+)\s*lat`),
	regexp.MustCompile(`min[.:]?\s*(\d+)\s*lat\w*\s*doświadczeni`),
	regexp.MustCompile(`(\d+)\+?\s*(?:years?|yrs)`),
}

// ParseYears pulls a required-years figure out of free text. Polish phrasings
// around "lat doświadczenia" are matched first, then the English "N years"
// form. ok is false when nothing matches.
func ParseYears(text string) (years int, ok bool) {
	lower := strings.ToLower(text)
	for _, re := range yearsPatterns {
		m := re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		v, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return v, true
	}
	return 0, false
}
