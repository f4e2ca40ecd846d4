package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/steamahead/jobminer/internal/store"
)

const (
	defaultRunLimit = 50
	maxRunLimit     = 500
	runQueryTimeout = 3 * time.Second
)

// RunHandler exposes read-only crawl-run endpoints.
type RunHandler struct {
	repo    store.RunRepository
	timeout time.Duration
	logger  *zap.Logger
}

// NewRunHandler wires the repository and logger.
func NewRunHandler(repo store.RunRepository, logger *zap.Logger) *RunHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunHandler{
		repo:    repo,
		timeout: runQueryTimeout,
		logger:  logger,
	}
}

// ListRuns handles GET /api/v1/runs?source=&status=&limit=&offset=. It returns
// a JSON object {"runs": [...]} on success, 400 for invalid filters, 503 when
// the repository is unavailable, or 500 if the repository call fails.
func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "run repository unavailable")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	limit, offset, err := parseLimitOffset(r, defaultRunLimit, maxRunLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	source := strings.TrimSpace(r.URL.Query().Get("source"))
	statusParam := strings.TrimSpace(r.URL.Query().Get("status"))
	var status *store.RunStatus
	if statusParam != "" {
		statusVal, parseErr := parseRunStatus(statusParam)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, parseErr.Error())
			return
		}
		status = &statusVal
	}
	runs, err := h.repo.ListRuns(ctx, source, status, limit, offset)
	if err != nil {
		h.logger.Error("list runs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"runs": toRunDTOs(runs),
	})
}

// GetRun handles GET /api/v1/runs/{run_id}. It returns {"run": {...}} on
// success, 400 for malformed IDs, 404 when the repository reports
// store.ErrNotFound, 503 if the repository is not initialized, or 500
// otherwise.
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "run repository unavailable")
		return
	}
	runID, err := parseRunID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	run, err := h.repo.GetRun(ctx, runID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		h.logger.Error("get run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"run": toRunDTO(run)})
}

func parseRunID(r *http.Request) (uuid.UUID, error) {
	runIDStr := chi.URLParam(r, "run_id")
	if runIDStr == "" {
		return uuid.UUID{}, errors.New("run_id is required")
	}
	runID, err := uuid.Parse(runIDStr)
	if err != nil {
		return uuid.UUID{}, errors.New("invalid run_id")
	}
	return runID, nil
}

func parseLimitOffset(r *http.Request, def, maxLimit int) (int, int, error) {
	q := r.URL.Query()
	limit := def
	if limStr := q.Get("limit"); limStr != "" {
		val, err := strconv.Atoi(limStr)
		if err != nil || val <= 0 {
			return 0, 0, errors.New("invalid limit")
		}
		if val > maxLimit {
			val = maxLimit
		}
		limit = val
	}
	offset := 0
	if offStr := q.Get("offset"); offStr != "" {
		val, err := strconv.Atoi(offStr)
		if err != nil || val < 0 {
			return 0, 0, errors.New("invalid offset")
		}
		offset = val
	}
	return limit, offset, nil
}

func parseRunStatus(input string) (store.RunStatus, error) {
	switch strings.ToLower(input) {
	case "running":
		return store.RunRunning, nil
	case "completed", "complete", "success":
		return store.RunCompleted, nil
	case "canceled", "cancelled":
		return store.RunCanceled, nil
	default:
		return "", errors.New("invalid status")
	}
}

func toRunDTOs(in []store.CrawlRun) []runDTO {
	out := make([]runDTO, 0, len(in))
	for _, run := range in {
		out = append(out, toRunDTO(run))
	}
	return out
}

func toRunDTO(run store.CrawlRun) runDTO {
	dto := runDTO{
		ID:        run.ID.String(),
		Source:    run.Source,
		StartedAt: run.StartedAt,
		Status:    string(run.Status),
		StartPage: run.StartPage,
		Pages:     run.Pages,
		Stubs:     run.Stubs,
		Kept:      run.Kept,
		Records:   run.Records,
		Skills:    run.Skills,
		Error:     run.ErrorMessage,
	}
	if run.FinishedAt != nil {
		dto.FinishedAt = run.FinishedAt
	}
	return dto
}

type runDTO struct {
	ID         string     `json:"id"`
	Source     string     `json:"source"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Status     string     `json:"status"`
	StartPage  int        `json:"start_page"`
	Pages      int64      `json:"pages"`
	Stubs      int64      `json:"stubs"`
	Kept       int64      `json:"kept"`
	Records    int64      `json:"records"`
	Skills     int64      `json:"skills"`
	Error      *string    `json:"error,omitempty"`
}
