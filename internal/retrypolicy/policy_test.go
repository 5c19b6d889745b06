package retrypolicy

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beanqueue/bq-go/internal/models"
)

func expectFailureCount(t *testing.T, mock pgxmock.PgxPoolIface, taskID uuid.UUID, n int) {
	t.Helper()
	mock.ExpectQuery("SELECT count").
		WithArgs(taskID, models.EventFailedRetryScheduled).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(n))
}

func TestDelayRetry(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.ExpectBegin()
	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	task := &models.Task{ID: uuid.New()}
	d, err := DelayRetry(5 * time.Second)(context.Background(), tx, task)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, 5*time.Second, *d)
}

func TestExponentialBackoffRetry(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.ExpectBegin()
	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	task := &models.Task{ID: uuid.New()}
	expectFailureCount(t, mock, task.ID, 1)

	d, err := ExponentialBackoffRetry(2, 0, 1.0)(context.Background(), tx, task)
	require.NoError(t, err)
	require.NotNil(t, d)

	expected := time.Duration(math.Pow(2, 0+1.0*(1+1)) * float64(time.Second))
	assert.Equal(t, expected, *d)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLimitAttempt_ReturnsNilAtLimit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.ExpectBegin()
	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	task := &models.Task{ID: uuid.New()}
	expectFailureCount(t, mock, task.ID, 2)

	policy := LimitAttempt(3, DelayRetry(time.Second))
	d, err := policy(context.Background(), tx, task)
	require.NoError(t, err)
	assert.Nil(t, d)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLimitAttempt_DelegatesBelowLimit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.ExpectBegin()
	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	task := &models.Task{ID: uuid.New()}
	expectFailureCount(t, mock, task.ID, 0)

	policy := LimitAttempt(3, DelayRetry(7*time.Second))
	d, err := policy(context.Background(), tx, task)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, 7*time.Second, *d)

	assert.NoError(t, mock.ExpectationsWereMet())
}
