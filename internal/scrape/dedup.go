package scrape

import "sync"

// Deduplicator tracks listing URLs already dispatched during one crawl run.
// Keys are canonicalized URLs. Writes happen on the coordinator goroutine
// between chunks; sync.Map keeps concurrent readers safe regardless.
type Deduplicator struct {
	seen sync.Map
}

// NewDeduplicator returns an empty per-run set.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{}
}

// SeenBefore reports whether the URL was already marked in this run.
func (d *Deduplicator) SeenBefore(url string) bool {
	_, ok := d.seen.Load(CanonicalURL(url))
	return ok
}

// MarkSeen records the URL for the rest of the run.
func (d *Deduplicator) MarkSeen(url string) {
	d.seen.Store(CanonicalURL(url), struct{}{})
}

// MarkIfNew marks the URL and reports true when it was not seen before.
func (d *Deduplicator) MarkIfNew(url string) bool {
	_, loaded := d.seen.LoadOrStore(CanonicalURL(url), struct{}{})
	return !loaded
}

// Preseed marks links persisted by earlier runs so their detail pages are
// not fetched again. Purely an optimization: the store upsert stays the
// correctness backstop.
func (d *Deduplicator) Preseed(links []string) {
	for _, link := range links {
		d.MarkSeen(link)
	}
}

// Len counts marked URLs.
func (d *Deduplicator) Len() int {
	n := 0
	d.seen.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
