package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/steamahead/jobminer/internal/store"
)

func runStoreForTest(t *testing.T) (*RunStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	s, err := NewRunStore(mock)
	require.NoError(t, err)
	return s, mock
}

func TestRunStoreStartRun(t *testing.T) {
	t.Parallel()

	s, mock := runStoreForTest(t)
	runID := uuid.New()
	started := time.Unix(1760000000, 0).UTC()

	mock.ExpectExec("INSERT INTO crawl_runs").
		WithArgs(runID, "pracuj", started, store.RunRunning, 1).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.StartRun(context.Background(), runID, "pracuj", started, 1))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunStoreAddPageStats(t *testing.T) {
	t.Parallel()

	s, mock := runStoreForTest(t)
	runID := uuid.New()
	at := time.Unix(1760000100, 0).UTC()

	mock.ExpectExec("UPDATE crawl_runs").
		WithArgs(runID, int64(1), int64(20), int64(15), int64(14), at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.AddPageStats(context.Background(), runID, 1, 20, 15, 14, at))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunStoreCompleteRun(t *testing.T) {
	t.Parallel()

	s, mock := runStoreForTest(t)
	runID := uuid.New()
	finished := time.Unix(1760000500, 0).UTC()

	mock.ExpectExec("UPDATE crawl_runs").
		WithArgs(runID, finished, store.RunCompleted, int64(29), int64(80), (*string)(nil)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.CompleteRun(context.Background(), runID, finished, store.RunCompleted, 29, 80, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunStoreGetRun(t *testing.T) {
	t.Parallel()

	s, mock := runStoreForTest(t)
	runID := uuid.New()
	started := time.Unix(1760000000, 0).UTC()
	finished := started.Add(3 * time.Minute)
	errMsg := "context canceled"

	mock.ExpectQuery("SELECT id, source, started_at").
		WithArgs(runID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "source", "started_at", "finished_at", "status", "start_page",
			"pages", "stubs", "kept", "records", "skills", "error_message",
		}).AddRow(
			runID, "pracuj", started, &finished, store.RunCanceled, 5,
			int64(3), int64(40), int64(30), int64(29), int64(80), &errMsg,
		))

	run, err := s.GetRun(context.Background(), runID)
	require.NoError(t, err)
	require.Equal(t, runID, run.ID)
	require.Equal(t, "pracuj", run.Source)
	require.Equal(t, store.RunCanceled, run.Status)
	require.Equal(t, 5, run.StartPage)
	require.Equal(t, int64(3), run.Pages)
	require.Equal(t, int64(29), run.Records)
	require.NotNil(t, run.FinishedAt)
	require.Equal(t, finished, *run.FinishedAt)
	require.NotNil(t, run.ErrorMessage)
	require.Equal(t, errMsg, *run.ErrorMessage)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunStoreGetRunNotFound(t *testing.T) {
	t.Parallel()

	s, mock := runStoreForTest(t)
	runID := uuid.New()

	mock.ExpectQuery("SELECT id, source, started_at").
		WithArgs(runID).
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), runID)
	require.ErrorIs(t, err, store.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunStoreListRuns(t *testing.T) {
	t.Parallel()

	s, mock := runStoreForTest(t)
	started := time.Unix(1760000000, 0).UTC()
	first, second := uuid.New(), uuid.New()

	mock.ExpectQuery("SELECT id, source, started_at").
		WithArgs("pracuj", (*store.RunStatus)(nil), 20, 0).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "source", "started_at", "finished_at", "status", "start_page",
			"pages", "stubs", "kept", "records", "skills", "error_message",
		}).AddRow(
			first, "pracuj", started, (*time.Time)(nil), store.RunRunning, 1,
			int64(0), int64(0), int64(0), int64(0), int64(0), (*string)(nil),
		).AddRow(
			second, "pracuj", started.Add(-time.Hour), (*time.Time)(nil), store.RunCompleted, 1,
			int64(2), int64(40), int64(40), int64(40), int64(95), (*string)(nil),
		))

	runs, err := s.ListRuns(context.Background(), "pracuj", nil, 20, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, first, runs[0].ID)
	require.Equal(t, store.RunRunning, runs[0].Status)
	require.Nil(t, runs[0].FinishedAt)
	require.Equal(t, second, runs[1].ID)
	require.Equal(t, int64(95), runs[1].Skills)
	require.NoError(t, mock.ExpectationsWereMet())
}
