// Package sites holds the job-board adapters. Each adapter knows one site's
// URL scheme and markup and turns fetched pages into stubs, listings, and
// skills; everything else about a crawl is site-agnostic.
package sites

import (
	"fmt"
	"sort"

	"github.com/steamahead/jobminer/internal/scrape"
)

// Registry resolves source names to adapters.
type Registry struct {
	adapters map[string]scrape.SiteAdapter
}

// NewRegistry indexes the given adapters by Name. Duplicate names are
// rejected; a crawl schedule addressing "pracuj" must mean exactly one thing.
func NewRegistry(adapters ...scrape.SiteAdapter) (*Registry, error) {
	r := &Registry{adapters: make(map[string]scrape.SiteAdapter, len(adapters))}
	for _, a := range adapters {
		name := a.Name()
		if _, exists := r.adapters[name]; exists {
			return nil, fmt.Errorf("duplicate site adapter %q", name)
		}
		r.adapters[name] = a
	}
	return r, nil
}

// Get returns the adapter registered under name.
func (r *Registry) Get(name string) (scrape.SiteAdapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}

// Names lists the registered sources in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
