// Package extract holds the site-independent text normalizers the detail
// parsers share: salary ranges, years of experience, and the skill taxonomy.
package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// hoursPerMonth converts hourly rates to the monthly figures the store keeps.
const hoursPerMonth = 160

var (
	salaryRangeRE  = regexp.MustCompile(`(\d+(?:[.,]\d+)?)[–—-](\d+(?:[.,]\d+)?)`)
	salarySingleRE = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
)

// ParseSalary normalizes a salary blurb into monthly integer bounds.
// Handles thin/non-breaking spaces, comma decimals, en-dash ranges, and
// hourly rates ("zł/h"), which are scaled by a 160-hour month. A single
// figure yields min == max. ok is false when no digits are present.
func ParseSalary(text string) (minSalary, maxSalary int, ok bool) {
	clean := strings.NewReplacer(
		"\u00a0", "",
		"\u202f", "",
		"&nbsp;", "",
		" ", "",
	).Replace(text)
	if clean == "" {
		return 0, 0, false
	}

	hourly := strings.Contains(clean, "/h") || strings.Contains(clean, "/godz")

	if m := salaryRangeRE.FindStringSubmatch(clean); m != nil {
		lo, loErr := parseAmount(m[1])
		hi, hiErr := parseAmount(m[2])
		if loErr == nil && hiErr == nil {
			return scale(lo, hourly), scale(hi, hourly), true
		}
	}

	if m := salarySingleRE.FindString(clean); m != "" {
		v, err := parseAmount(m)
		if err == nil {
			monthly := scale(v, hourly)
			return monthly, monthly, true
		}
	}

	return 0, 0, false
}

func parseAmount(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
}

func scale(v float64, hourly bool) int {
	if hourly {
		v *= hoursPerMonth
	}
	return int(math.Round(v))
}
