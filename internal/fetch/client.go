// Package fetch implements the single-page GET every other component goes
// through: rate-limiter admission, anti-burst jitter, browser-like headers,
// response classification, and exponential backoff on transient failures.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/steamahead/jobminer/internal/logging"
	"github.com/steamahead/jobminer/internal/metrics"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
	defaultTimeout   = 20 * time.Second
	defaultJitterMin = 300 * time.Millisecond
	defaultJitterMax = 1200 * time.Millisecond
	defaultMinBody   = 2048
)

// Limiter admits one outbound request. Satisfied by ratelimit.Limiter.
type Limiter interface {
	Acquire(ctx context.Context) error
}

// Config controls client behavior.
type Config struct {
	// Source labels logs and metrics with the site this client serves.
	Source         string
	UserAgent      string
	AcceptLanguage string
	// Timeout bounds one HTTP exchange.
	Timeout time.Duration
	// JitterMin/JitterMax bound the random pre-request sleep applied after
	// limiter admission. JitterMax zero selects the defaults.
	JitterMin time.Duration
	JitterMax time.Duration
	// MinBodyBytes rejects bodies smaller than this as block/error filler.
	// Zero selects the default; negative disables the check.
	MinBodyBytes int
	// StubMarkers are substrings whose presence marks a body as a stub page.
	StubMarkers []string
	// Retry knobs; zero values select the policy defaults.
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration
	// RespectRobots opts into robots.txt handling. Off by default: the crawl
	// budget is enforced by the shared limiter instead.
	RespectRobots bool
}

// Client fetches single pages over one shared pooled transport. Each call
// clones the base collector, so connections are reused across requests while
// per-request state stays isolated.
type Client struct {
	cfg     Config
	limiter Limiter
	policy  *RetryPolicy
	base    *colly.Collector
	logger  *zap.Logger
}

// New builds a Client around the shared limiter.
func New(cfg Config, limiter Limiter, logger *zap.Logger) *Client {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.JitterMax <= 0 {
		cfg.JitterMin = defaultJitterMin
		cfg.JitterMax = defaultJitterMax
	}
	if cfg.JitterMax < cfg.JitterMin {
		cfg.JitterMax = cfg.JitterMin
	}
	if cfg.MinBodyBytes == 0 {
		cfg.MinBodyBytes = defaultMinBody
	}

	base := colly.NewCollector(colly.Async(false))
	base.AllowURLRevisit = true
	base.IgnoreRobotsTxt = !cfg.RespectRobots
	base.UserAgent = cfg.UserAgent
	base.SetRequestTimeout(cfg.Timeout)
	base.WithTransport(newHTTPTransport())

	return &Client{
		cfg:     cfg,
		limiter: limiter,
		policy:  NewRetryPolicy(cfg.MaxAttempts, cfg.BackoffBase, cfg.BackoffMax),
		base:    base,
		logger:  logging.OrNop(logger),
	}
}

// Fetch gets url, retrying transient failures with backoff. A non-nil error
// means the URL should be skipped; it never warrants aborting the crawl.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()
	var lastErr error
	for attempt := 0; ; attempt++ {
		body, err := c.fetchOnce(ctx, url)
		if err == nil {
			metrics.ObserveFetch(c.cfg.Source, "ok", time.Since(start))
			return body, nil
		}
		lastErr = err
		if !c.policy.ShouldRetry(err, attempt+1) {
			break
		}
		delay := c.policy.Backoff(attempt)
		c.logger.Debug("retrying fetch",
			zap.String("url", url),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		metrics.ObserveRetry(c.cfg.Source)
		if serr := sleepCtx(ctx, delay); serr != nil {
			lastErr = serr
			break
		}
	}

	outcome := "failed"
	if Retryable(lastErr) {
		outcome = "exhausted"
	}
	metrics.ObserveFetch(c.cfg.Source, outcome, 0)
	return nil, fmt.Errorf("fetch %s: %w", url, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	if err := sleepCtx(ctx, randomDuration(c.cfg.JitterMin, c.cfg.JitterMax)); err != nil {
		return nil, err
	}

	collector := c.base.Clone()

	var (
		body       []byte
		statusCode int
	)
	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		if c.cfg.AcceptLanguage != "" {
			r.Headers.Set("Accept-Language", c.cfg.AcceptLanguage)
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, _ error) {
		if r != nil {
			statusCode = r.StatusCode
		}
	})

	if err := c.visit(ctx, collector, url); err != nil {
		if statusCode >= http.StatusBadRequest {
			return nil, &StatusError{Code: statusCode}
		}
		return nil, err
	}
	return body, c.checkBody(body)
}

// visit runs the collector in a goroutine so the caller's context can cut
// the wait short even though colly itself is synchronous.
func (c *Client) visit(ctx context.Context, collector *colly.Collector, url string) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("visit: %w", err)
		}
		return nil
	}
}

func (c *Client) checkBody(body []byte) error {
	if c.cfg.MinBodyBytes > 0 && len(body) < c.cfg.MinBodyBytes {
		return &ContentError{Reason: "short body", Size: len(body)}
	}
	for _, marker := range c.cfg.StubMarkers {
		if marker != "" && bytes.Contains(body, []byte(marker)) {
			return &ContentError{Reason: "stub marker", Size: len(body)}
		}
	}
	return nil
}

func randomDuration(minD, maxD time.Duration) time.Duration {
	if maxD <= minD {
		return minD
	}
	return minD + randomJitter(maxD-minD)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("wait interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
