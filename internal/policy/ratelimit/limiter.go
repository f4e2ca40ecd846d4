// Package ratelimit implements the shared admission control for outbound
// requests. One Limiter guards the whole crawl: listing-page fetches and
// detail-page fetches draw from the same budget so the target site sees one
// bounded request stream regardless of which component is asking.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/steamahead/jobminer/internal/metrics"
)

const (
	defaultWindow  = time.Second
	defaultQuantum = 50 * time.Millisecond
)

// Config holds rate limiter configuration.
type Config struct {
	// RequestsPerWindow is the admission ceiling inside one rolling window.
	RequestsPerWindow int
	// Window is the rolling interval the ceiling applies to. Defaults to one
	// second, which is also what the ceiling is tuned for.
	Window time.Duration
	// PollQuantum is how long a blocked caller sleeps before re-checking.
	PollQuantum time.Duration
}

// Limiter admits requests while the trailing window holds fewer than the
// configured ceiling. Admission is polled rather than queued: a blocked
// caller sleeps one quantum and re-checks, which keeps the implementation
// small and fair enough for the sub-second contention windows a crawl sees.
type Limiter struct {
	mu     sync.Mutex
	stamps []time.Time

	limit   int
	window  time.Duration
	quantum time.Duration

	now func() time.Time
}

// New creates a Limiter from cfg, applying defaults for unset fields.
func New(cfg Config) *Limiter {
	limit := cfg.RequestsPerWindow
	if limit <= 0 {
		limit = 4
	}
	window := cfg.Window
	if window <= 0 {
		window = defaultWindow
	}
	quantum := cfg.PollQuantum
	if quantum <= 0 {
		quantum = defaultQuantum
	}
	return &Limiter{
		stamps:  make([]time.Time, 0, limit),
		limit:   limit,
		window:  window,
		quantum: quantum,
		now:     time.Now,
	}
}

// Acquire blocks until one more request fits inside the trailing window, or
// the context is done. Safe for concurrent use by every fetcher in the crawl.
func (l *Limiter) Acquire(ctx context.Context) error {
	start := l.now()
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
		if l.admit() {
			if waited := l.now().Sub(start); waited >= l.quantum {
				metrics.ObserveRateLimitDelay(waited)
			}
			return nil
		}
		timer := time.NewTimer(l.quantum)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("rate limit wait: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

// admit purges stamps older than the window and, if room remains, records
// the new admission. Returns false when the window is full.
func (l *Limiter) admit() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	keep := l.stamps[:0]
	for _, ts := range l.stamps {
		if ts.After(cutoff) {
			keep = append(keep, ts)
		}
	}
	l.stamps = keep

	if len(l.stamps) >= l.limit {
		return false
	}
	l.stamps = append(l.stamps, now)
	return true
}
