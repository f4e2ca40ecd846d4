package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/steamahead/jobminer/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Init()
	m.Run()
}

// noopLimiter admits everything; rate behavior is covered in the ratelimit
// package.
type noopLimiter struct{}

func (noopLimiter) Acquire(context.Context) error { return nil }

func fastConfig(source string) Config {
	return Config{
		Source:       source,
		JitterMin:    0,
		JitterMax:    time.Millisecond,
		MinBodyBytes: 16,
		MaxAttempts:  3,
		BackoffBase:  time.Millisecond,
		BackoffMax:   4 * time.Millisecond,
		Timeout:      5 * time.Second,
	}
}

func TestClientFetchSuccess(t *testing.T) {
	t.Parallel()

	payload := "<html><body>" + strings.Repeat("offer ", 10) + "</body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	c := New(fastConfig("test"), noopLimiter{}, nil)
	body, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, payload, string(body))
}

func TestClientRetriesRatePushback(t *testing.T) {
	t.Parallel()

	var calls int32
	payload := strings.Repeat("listing ", 10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	c := New(fastConfig("test"), noopLimiter{}, nil)
	body, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, payload, string(body))
	require.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClientRejectsShortBody(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte("tiny"))
	}))
	defer srv.Close()

	cfg := fastConfig("test")
	cfg.MaxAttempts = 2
	c := New(cfg, noopLimiter{}, nil)

	_, err := c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	var contentErr *ContentError
	require.ErrorAs(t, err, &contentErr)
	require.Equal(t, "short body", contentErr.Reason)
	require.Equal(t, int32(2), atomic.LoadInt32(&calls), "short bodies are retried until attempts run out")
}

func TestClientRejectsStubMarker(t *testing.T) {
	t.Parallel()

	body := "<html>" + strings.Repeat("x", 64) + "oferta nie jest już dostępna</html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	cfg := fastConfig("test")
	cfg.MaxAttempts = 1
	cfg.StubMarkers = []string{"nie jest już dostępna"}
	c := New(cfg, noopLimiter{}, nil)

	_, err := c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	var contentErr *ContentError
	require.ErrorAs(t, err, &contentErr)
	require.Equal(t, "stub marker", contentErr.Reason)
}

func TestClientPermanentStatusSkipsRetry(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(fastConfig("test"), noopLimiter{}, nil)
	_, err := c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusNotFound, statusErr.Code)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls), "a 404 is permanent for that URL")
}

func TestClientContextCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(strings.Repeat("slow ", 10)))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := New(fastConfig("test"), noopLimiter{}, nil)
	_, err := c.Fetch(ctx, srv.URL)
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
