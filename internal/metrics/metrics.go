// Package metrics exposes Prometheus collectors for the miner.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchRequestsTotal        *prometheus.CounterVec
	fetchRetriesTotal         *prometheus.CounterVec
	fetchDurationSeconds      *prometheus.HistogramVec
	pagesProcessedTotal       *prometheus.CounterVec
	listingsScrapedTotal      *prometheus.CounterVec
	skillsWrittenTotal        *prometheus.CounterVec
	runsTotal                 *prometheus.CounterVec
	activeDetailWorkers       prometheus.Gauge
	rateLimitDelaySeconds     prometheus.Histogram
	httpRequestsTotal         *prometheus.CounterVec
	httpRequestDurationSecond *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus collectors. It is safe to call more than
// once; only the first call registers anything.
func Init() {
	once.Do(func() {
		fetchRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobminer_fetch_requests_total",
				Help: "Outbound fetches, labeled by source and outcome (ok, exhausted, failed).",
			},
			[]string{"source", "outcome"},
		)

		fetchRetriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobminer_fetch_retries_total",
				Help: "Retry attempts made after retryable fetch failures.",
			},
			[]string{"source"},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jobminer_fetch_duration_seconds",
				Help:    "Latency of successful fetches including rate-limit wait.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"source"},
		)

		pagesProcessedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobminer_pages_processed_total",
				Help: "Listing pages walked, labeled by source.",
			},
			[]string{"source"},
		)

		listingsScrapedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobminer_listings_scraped_total",
				Help: "Detail pages processed, labeled by source and result (inserted, updated, failed).",
			},
			[]string{"source", "result"},
		)

		skillsWrittenTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobminer_skills_written_total",
				Help: "Skill rows handed to the store, labeled by source.",
			},
			[]string{"source"},
		)

		runsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobminer_runs_total",
				Help: "Crawl runs, labeled by source and final status.",
			},
			[]string{"source", "status"},
		)

		activeDetailWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "jobminer_active_detail_workers",
				Help: "Detail-pool tasks currently in flight.",
			},
		)

		rateLimitDelaySeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "jobminer_rate_limit_delay_seconds",
				Help:    "Time spent waiting on the shared request budget.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Ops API requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSecond = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Ops API latency, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns the http.Handler exposing the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch records one completed fetch attempt chain.
func ObserveFetch(source, outcome string, duration time.Duration) {
	fetchRequestsTotal.WithLabelValues(source, outcome).Inc()
	if outcome == "ok" {
		fetchDurationSeconds.WithLabelValues(source).Observe(duration.Seconds())
	}
}

// ObserveRetry counts one backoff-and-retry cycle.
func ObserveRetry(source string) {
	fetchRetriesTotal.WithLabelValues(source).Inc()
}

// ObservePage counts one walked listing page.
func ObservePage(source string) {
	pagesProcessedTotal.WithLabelValues(source).Inc()
}

// ObserveListing counts one detail-page outcome.
func ObserveListing(source, result string) {
	listingsScrapedTotal.WithLabelValues(source, result).Inc()
}

// AddSkills counts skill rows written for a source.
func AddSkills(source string, n int) {
	if n > 0 {
		skillsWrittenTotal.WithLabelValues(source).Add(float64(n))
	}
}

// ObserveRun counts one finished crawl run.
func ObserveRun(source, status string) {
	runsTotal.WithLabelValues(source, status).Inc()
}

// IncDetailWorkers increments the in-flight detail task gauge.
func IncDetailWorkers() {
	activeDetailWorkers.Inc()
}

// DecDetailWorkers decrements the in-flight detail task gauge.
func DecDetailWorkers() {
	activeDetailWorkers.Dec()
}

// ObserveRateLimitDelay records time spent blocked on the limiter.
func ObserveRateLimitDelay(duration time.Duration) {
	rateLimitDelaySeconds.Observe(duration.Seconds())
}

// ObserveHTTPRequest records one ops API request.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSecond.WithLabelValues(method, route).Observe(duration.Seconds())
}
