// Package retrypolicy provides composable functions mapping a just-failed
// task to a retry delay, or nil to signal a terminal failure.
package retrypolicy

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/beanqueue/bq-go/internal/models"
)

// Policy decides how long to wait before retrying task, or returns a nil
// duration if the task should be treated as a terminal failure. now is
// resolved by the caller from the database's clock, never the worker's.
type Policy func(ctx context.Context, tx pgx.Tx, task *models.Task) (*time.Duration, error)

// failureCount counts the FAILED_RETRY_SCHEDULED events already recorded
// for task, i.e. how many retries have already been scheduled.
func failureCount(ctx context.Context, tx pgx.Tx, task *models.Task) (int, error) {
	var n int
	err := tx.QueryRow(ctx, `
		SELECT count(*) FROM bq_events
		WHERE task_id = $1 AND type = $2
	`, task.ID, models.EventFailedRetryScheduled).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("retrypolicy: count failures: %w", err)
	}
	return n, nil
}

// DelayRetry always retries after a fixed delay.
func DelayRetry(delay time.Duration) Policy {
	return func(ctx context.Context, tx pgx.Tx, task *models.Task) (*time.Duration, error) {
		d := delay
		return &d, nil
	}
}

// ExponentialBackoffRetry retries after base^(offset + scalar*(n+1))
// seconds, where n is the number of prior FAILED_RETRY_SCHEDULED events.
func ExponentialBackoffRetry(base, offset, scalar float64) Policy {
	return func(ctx context.Context, tx pgx.Tx, task *models.Task) (*time.Duration, error) {
		n, err := failureCount(ctx, tx, task)
		if err != nil {
			return nil, err
		}
		seconds := math.Pow(base, offset+scalar*(float64(n)+1))
		d := time.Duration(seconds * float64(time.Second))
		return &d, nil
	}
}

// LimitAttempt delegates to inner unless the task has already been retried
// max-1 times, in which case it returns nil (terminal failure).
func LimitAttempt(max int, inner Policy) Policy {
	return func(ctx context.Context, tx pgx.Tx, task *models.Task) (*time.Duration, error) {
		n, err := failureCount(ctx, tx, task)
		if err != nil {
			return nil, err
		}
		if n+1 >= max {
			return nil, nil
		}
		return inner(ctx, tx, task)
	}
}
