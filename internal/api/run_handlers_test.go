package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/steamahead/jobminer/internal/store"
)

func TestRunHandlerListRuns(t *testing.T) {
	t.Parallel()

	repo := &mockRunRepo{
		runs: []store.CrawlRun{
			{
				ID:        uuid.New(),
				Source:    "pracuj",
				Status:    store.RunCompleted,
				StartedAt: time.Now().Add(-time.Hour),
				Pages:     3,
				Records:   40,
			},
		},
	}
	handler := NewRunHandler(repo, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs?source=pracuj&status=completed&limit=10", nil)
	rec := httptest.NewRecorder()

	handler.ListRuns(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Runs []runDTO `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Runs, 1)
	require.Equal(t, "pracuj", body.Runs[0].Source)
	require.Equal(t, int64(40), body.Runs[0].Records)

	require.Equal(t, "pracuj", repo.lastSource)
	require.NotNil(t, repo.lastStatus)
	require.Equal(t, store.RunCompleted, *repo.lastStatus)
	require.Equal(t, 10, repo.lastLimit)
}

func TestRunHandlerListRunsRejectsBadFilters(t *testing.T) {
	t.Parallel()

	handler := NewRunHandler(&mockRunRepo{}, zap.NewNop())

	for name, target := range map[string]string{
		"bad status": "/api/v1/runs?status=exploded",
		"bad limit":  "/api/v1/runs?limit=-1",
		"bad offset": "/api/v1/runs?offset=x",
	} {
		target := target
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			handler.ListRuns(rec, httptest.NewRequest(http.MethodGet, target, nil))
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRunHandlerListRunsCapsLimit(t *testing.T) {
	t.Parallel()

	repo := &mockRunRepo{}
	handler := NewRunHandler(repo, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.ListRuns(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs?limit=9999", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, maxRunLimit, repo.lastLimit)
}

func TestRunHandlerGetRun(t *testing.T) {
	t.Parallel()

	runID := uuid.New()
	finished := time.Now()
	repo := &mockRunRepo{
		runs: []store.CrawlRun{{
			ID:         runID,
			Source:     "justjoin",
			Status:     store.RunCanceled,
			StartedAt:  finished.Add(-time.Minute),
			FinishedAt: &finished,
		}},
	}
	handler := NewRunHandler(repo, zap.NewNop())

	req := withRunIDParam(httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+runID.String(), nil), runID.String())
	rec := httptest.NewRecorder()

	handler.GetRun(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Run runDTO `json:"run"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, runID.String(), body.Run.ID)
	require.Equal(t, string(store.RunCanceled), body.Run.Status)
	require.NotNil(t, body.Run.FinishedAt)
}

func TestRunHandlerGetRunNotFound(t *testing.T) {
	t.Parallel()

	repo := &mockRunRepo{err: store.ErrNotFound}
	handler := NewRunHandler(repo, zap.NewNop())

	runID := uuid.New()
	req := withRunIDParam(httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+runID.String(), nil), runID.String())
	rec := httptest.NewRecorder()

	handler.GetRun(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunHandlerGetRunRejectsMalformedID(t *testing.T) {
	t.Parallel()

	handler := NewRunHandler(&mockRunRepo{}, zap.NewNop())

	req := withRunIDParam(httptest.NewRequest(http.MethodGet, "/api/v1/runs/not-a-uuid", nil), "not-a-uuid")
	rec := httptest.NewRecorder()

	handler.GetRun(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunHandlersWithoutRepository(t *testing.T) {
	t.Parallel()

	handler := NewRunHandler(nil, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.ListRuns(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	runID := uuid.New().String()
	handler.GetRun(rec, withRunIDParam(httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+runID, nil), runID))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type mockRunRepo struct {
	runs []store.CrawlRun
	err  error

	lastSource string
	lastStatus *store.RunStatus
	lastLimit  int
	lastOffset int
}

func (m *mockRunRepo) StartRun(context.Context, uuid.UUID, string, time.Time, int) error {
	return m.err
}

func (m *mockRunRepo) AddPageStats(context.Context, uuid.UUID, int64, int64, int64, int64, time.Time) error {
	return m.err
}

func (m *mockRunRepo) CompleteRun(context.Context, uuid.UUID, time.Time, store.RunStatus, int64, int64, *string) error {
	return m.err
}

func (m *mockRunRepo) GetRun(_ context.Context, runID uuid.UUID) (store.CrawlRun, error) {
	for _, run := range m.runs {
		if run.ID == runID {
			return run, nil
		}
	}
	if m.err != nil {
		return store.CrawlRun{}, m.err
	}
	return store.CrawlRun{}, store.ErrNotFound
}

func (m *mockRunRepo) ListRuns(_ context.Context, source string, status *store.RunStatus, limit, offset int) ([]store.CrawlRun, error) {
	m.lastSource = source
	m.lastStatus = status
	m.lastLimit = limit
	m.lastOffset = offset
	return m.runs, m.err
}

func withRunIDParam(r *http.Request, runID string) *http.Request {
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("run_id", runID)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, ctx))
}
