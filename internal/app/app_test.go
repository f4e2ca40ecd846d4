package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steamahead/jobminer/internal/app"
	"github.com/steamahead/jobminer/internal/config"
)

// memoryConfig is the smallest config Build accepts: in-memory stores and
// checkpoints, progress off, one enabled site.
func memoryConfig() config.Config {
	var cfg config.Config
	cfg.Crawler.RequestsPerSecond = 100
	cfg.Crawler.TimeoutSeconds = 5
	cfg.Crawler.MaxRetries = 1
	cfg.Crawler.JitterMaxMs = 1
	cfg.Crawler.ChunkSize = 4
	cfg.Crawler.MinBodyBytes = -1
	cfg.Checkpoint.Backend = "memory"
	cfg.Sites.Pracuj.Enabled = true
	return cfg
}

func TestBuildWithMemoryBackends(t *testing.T) {
	ctx := context.Background()

	a, err := app.Build(ctx, memoryConfig())
	require.NoError(t, err)
	require.NotNil(t, a)

	require.NoError(t, a.Close(ctx))
}

func TestBuildErrors(t *testing.T) {
	testCases := []struct {
		name        string
		mutate      func(cfg *config.Config)
		wantMessage string
	}{
		{
			name: "bad checkpoint redis url",
			mutate: func(cfg *config.Config) {
				cfg.Checkpoint.Backend = "redis"
				cfg.Checkpoint.RedisURL = "://nope"
			},
			wantMessage: "parse checkpoint redis url",
		},
		{
			name: "archive without directory",
			mutate: func(cfg *config.Config) {
				cfg.Archive.Enabled = true
				cfg.Archive.Dir = ""
			},
			wantMessage: "archive init failed",
		},
		{
			name: "no sites enabled",
			mutate: func(cfg *config.Config) {
				cfg.Sites.Pracuj.Enabled = false
				cfg.Sites.Justjoin.Enabled = false
			},
			wantMessage: "no site adapters enabled",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := memoryConfig()
			tc.mutate(&cfg)

			_, err := app.Build(context.Background(), cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantMessage)
		})
	}
}

func TestRunSourceRejectsUnknownSource(t *testing.T) {
	ctx := context.Background()

	a, err := app.Build(ctx, memoryConfig())
	require.NoError(t, err)
	defer a.Close(ctx)

	err = a.RunSource(ctx, "nosuch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown source "nosuch"`)
}

// TestRunOnceAgainstLocalServer drives a whole crawl against a local server
// that returns a listing page with no offers, which ends the walk after one
// page.
func TestRunOnceAgainstLocalServer(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body><div id="offers-list"></div></body></html>`))
	}))
	defer srv.Close()

	cfg := memoryConfig()
	cfg.Crawler.MaxPages = 2
	cfg.Sites.Pracuj.SearchURL = srv.URL + "/praca"

	ctx := context.Background()
	a, err := app.Build(ctx, cfg)
	require.NoError(t, err)
	defer a.Close(ctx)

	require.NoError(t, a.RunOnce(ctx, nil))
	assert.GreaterOrEqual(t, hits.Load(), int64(1))
}
