package extract

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Category groups canonical skill names under a reporting label. Order
// matters: when a skill appears in several categories the first one wins.
type Category struct {
	Name   string   `json:"name"`
	Skills []string `json:"skills"`
}

// Taxonomy maps raw skill strings scraped off job boards onto a canonical
// vocabulary and assigns each canonical skill a category.
type Taxonomy struct {
	categories []Category
	byCategory map[string]string
	variants   map[string]string
	canonicals []string
}

// OtherCategory is assigned to skills no category claims.
const OtherCategory = "Other"

// New builds a Taxonomy from ordered categories and a variant table keyed by
// canonical name. Duplicate claims resolve to the first declaration.
func New(categories []Category, variants map[string][]string) *Taxonomy {
	t := &Taxonomy{
		categories: categories,
		byCategory: make(map[string]string),
		variants:   make(map[string]string),
	}
	for _, cat := range categories {
		for _, s := range cat.Skills {
			s = strings.ToLower(s)
			if _, seen := t.byCategory[s]; !seen {
				t.byCategory[s] = cat.Name
				t.canonicals = append(t.canonicals, s)
			}
		}
	}
	keys := make([]string, 0, len(variants))
	for canonical := range variants {
		keys = append(keys, canonical)
	}
	sort.Strings(keys)
	for _, canonical := range keys {
		for _, v := range variants[canonical] {
			v = strings.ToLower(v)
			if _, seen := t.variants[v]; !seen {
				t.variants[v] = strings.ToLower(canonical)
			}
		}
	}
	return t
}

// DefaultTaxonomy returns the built-in data-analytics vocabulary.
func DefaultTaxonomy() *Taxonomy {
	return New(defaultCategories, defaultVariants)
}

// LoadTaxonomyFile reads a JSON taxonomy override of the form
//
//	{"categories": [{"name": ..., "skills": [...]}], "variants": {...}}
//
// so deployments can extend the vocabulary without a rebuild.
func LoadTaxonomyFile(path string) (*Taxonomy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy file: %w", err)
	}
	var doc struct {
		Categories []Category          `json:"categories"`
		Variants   map[string][]string `json:"variants"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse taxonomy file %s: %w", path, err)
	}
	if len(doc.Categories) == 0 {
		return nil, fmt.Errorf("taxonomy file %s: no categories", path)
	}
	return New(doc.Categories, doc.Variants), nil
}

// Canonicalize maps a raw skill string to its canonical name. Canonical
// names map to themselves. ok is false for vocabulary misses.
func (t *Taxonomy) Canonicalize(raw string) (canonical string, ok bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", false
	}
	if _, direct := t.byCategory[s]; direct {
		return s, true
	}
	if c, variant := t.variants[s]; variant {
		return c, true
	}
	return "", false
}

// Categorize returns the category of a canonical skill, or OtherCategory
// when no category claims it.
func (t *Taxonomy) Categorize(canonical string) string {
	if cat, ok := t.byCategory[strings.ToLower(canonical)]; ok {
		return cat
	}
	return OtherCategory
}

// FindAll scans free text for canonical skill mentions. Matches require
// non-alphanumeric boundaries so "r" does not fire inside "services".
// Results keep vocabulary order and carry no duplicates.
func (t *Taxonomy) FindAll(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, skill := range t.canonicals {
		if containsTerm(lower, skill) {
			found = append(found, skill)
		}
	}
	return found
}

func containsTerm(text, term string) bool {
	for start := 0; start <= len(text)-len(term); {
		i := strings.Index(text[start:], term)
		if i < 0 {
			return false
		}
		i += start
		if boundaryBefore(text, i) && boundaryAfter(text, i+len(term)) {
			return true
		}
		start = i + 1
	}
	return false
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
