package sinks

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/steamahead/jobminer/internal/progress"
)

// PrometheusSink exports run-level progress metrics. Its collectors are
// complementary to the per-operation counters in internal/metrics: this sink
// tracks whole-run shapes (duration, pages per run, stub dispositions) that
// only the event stream can see.
type PrometheusSink struct {
	runsStarted prometheus.Counter
	runsDone    *prometheus.CounterVec
	runsRunning prometheus.Gauge
	runDuration *prometheus.HistogramVec
	runPages    *prometheus.HistogramVec
	runRecords  *prometheus.HistogramVec

	stubs *prometheus.CounterVec

	tracker *runTracker
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobminer_crawl_runs_started_total",
			Help: "Total crawl runs that have started.",
		}),
		runsDone: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobminer_crawl_runs_finished_total",
			Help: "Total crawl runs finished partitioned by result.",
		}, []string{"result"}),
		runsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jobminer_crawl_runs_running",
			Help: "Current number of in-flight crawl runs.",
		}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jobminer_crawl_run_duration_seconds",
			Help:    "Wall time per finished run.",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200, 3600},
		}, []string{"result"}),
		runPages: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jobminer_crawl_run_pages",
			Help:    "Listing pages walked per finished run.",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 200},
		}, []string{"source"}),
		runRecords: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jobminer_crawl_run_records",
			Help:    "Listings persisted per finished run.",
			Buckets: []float64{0, 10, 50, 100, 250, 500, 1000, 2500},
		}, []string{"source"}),
		stubs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobminer_stubs_total",
			Help: "Listing stubs discovered, partitioned by dedup disposition.",
		}, []string{"source", "disposition"}),
		tracker: newRunTracker(),
	}
	for _, collector := range []prometheus.Collector{
		s.runsStarted,
		s.runsDone,
		s.runsRunning,
		s.runDuration,
		s.runPages,
		s.runRecords,
		s.stubs,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the Prometheus collectors using the provided batch. It is
// safe for concurrent use by multiple goroutines.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageRunStart:
		s.runsStarted.Inc()
		if s.tracker.start(evt.RunID) {
			s.runsRunning.Inc()
		}
	case progress.StagePageDone:
		s.handlePageEvent(evt)
	case progress.StageRunDone:
		s.handleTerminalEvent(evt, "completed")
	case progress.StageRunCanceled:
		s.handleTerminalEvent(evt, "canceled")
	}
}

func (s *PrometheusSink) handlePageEvent(evt progress.Event) {
	if evt.Stubs > 0 {
		s.stubs.WithLabelValues(evt.Source, "kept").Add(float64(evt.Kept))
		s.stubs.WithLabelValues(evt.Source, "skipped").Add(float64(evt.Stubs - evt.Kept))
	}
	s.tracker.addPage(evt.RunID)
}

func (s *PrometheusSink) handleTerminalEvent(evt progress.Event, result string) {
	s.runsDone.WithLabelValues(result).Inc()
	if evt.Dur > 0 {
		s.runDuration.WithLabelValues(result).Observe(evt.Dur.Seconds())
	}
	pages, active := s.tracker.complete(evt.RunID)
	if active {
		s.runsRunning.Dec()
	}
	s.runPages.WithLabelValues(evt.Source).Observe(float64(pages))
	s.runRecords.WithLabelValues(evt.Source).Observe(float64(evt.Records))
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}

// runTracker keeps the running-gauge honest when terminal events arrive for
// runs the sink never saw start, and counts pages per run for the histogram.
type runTracker struct {
	mu      sync.Mutex
	running map[string]int
}

func newRunTracker() *runTracker {
	return &runTracker{running: make(map[string]int)}
}

func (t *runTracker) start(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[id]; ok {
		return false
	}
	t.running[id] = 0
	return true
}

func (t *runTracker) addPage(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[id]; ok {
		t.running[id]++
	}
}

func (t *runTracker) complete(id string) (pages int, active bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	pages, active = t.running[id]
	if active {
		delete(t.running, id)
	}
	return pages, active
}
