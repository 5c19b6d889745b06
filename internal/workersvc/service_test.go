package workersvc

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_GetWorker_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	emptyRows := pgxmock.NewRows([]string{"id", "state", "name", "channels", "last_heartbeat", "created_at"})
	mock.ExpectQuery("SELECT id, state, name, channels").
		WithArgs(id).
		WillReturnRows(emptyRows)

	svc := New(mock)
	w, err := svc.GetWorker(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, w)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_UpdateHeartbeat_MissingWorker(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec(`UPDATE "bq_workers" SET last_heartbeat`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	svc := New(mock)
	err = svc.UpdateHeartbeat(context.Background(), id)
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_FetchDeadWorkers(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	workerID := uuid.New()
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{"id", "state", "name", "channels", "last_heartbeat", "created_at"}).
		AddRow(workerID, "NO_HEARTBEAT", "w1", []string{"c"}, now, now)

	mock.ExpectQuery("WITH dead AS").
		WithArgs(100.0, 5).
		WillReturnRows(rows)

	svc := New(mock)
	dead, err := svc.FetchDeadWorkers(context.Background(), 100.0, 5)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, workerID, dead[0].ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_RescheduleDeadTasks_EmptyInput(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := New(mock)
	count, channels, err := svc.RescheduleDeadTasks(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, channels)
}

type stubWorkerAdapter struct{ table string }

func (s stubWorkerAdapter) TableName() string { return s.table }

func TestService_WithWorkerAdapter_UsesAdapterTable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	emptyRows := pgxmock.NewRows([]string{"id", "state", "name", "channels", "last_heartbeat", "created_at"})
	mock.ExpectQuery(`FROM "custom_workers"`).
		WithArgs(id).
		WillReturnRows(emptyRows)

	svc := New(mock, WithWorkerAdapter(stubWorkerAdapter{table: "custom_workers"}))
	w, err := svc.GetWorker(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, w)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_WithExecutor_PreservesAdapter(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	emptyRows := pgxmock.NewRows([]string{"id", "state", "name", "channels", "last_heartbeat", "created_at"})
	mock.ExpectQuery(`FROM "custom_workers"`).
		WithArgs(id).
		WillReturnRows(emptyRows)

	svc := New(mock, WithWorkerAdapter(stubWorkerAdapter{table: "custom_workers"}))
	txSvc := svc.WithExecutor(mock)
	w, err := txSvc.GetWorker(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, w)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_RescheduleDeadTasks_DedupsChannels(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	workerID := uuid.New()
	rows := pgxmock.NewRows([]string{"channel"}).AddRow("c").AddRow("c").AddRow("d")

	mock.ExpectQuery("UPDATE bq_tasks").
		WithArgs([]uuid.UUID{workerID}).
		WillReturnRows(rows)

	svc := New(mock)
	count, channels, err := svc.RescheduleDeadTasks(context.Background(), []uuid.UUID{workerID})
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
	assert.ElementsMatch(t, []string{"c", "d"}, channels)

	assert.NoError(t, mock.ExpectationsWereMet())
}
