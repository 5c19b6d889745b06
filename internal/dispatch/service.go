package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/beanqueue/bq-go/internal/db"
	"github.com/beanqueue/bq-go/internal/models"
)

// Querier is the subset of *pgxpool.Pool that Dispatch needs. Defining it
// here (rather than depending on pgxpool.Pool directly) lets tests swap in
// pgxmock's pool double.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Notification is a wake-up received on a listened channel. Payloads are
// unused by this system; the arrival itself is the signal, and the source of
// truth is always a re-query via Dispatch.
type Notification struct {
	PID     uint32
	Channel string
	Payload string
}

// TaskAdapter names the table dispatch.Service claims rows from and scans
// them into a models.TaskAccessor. defaultTaskAdapter is what ModelsConfig's
// default ("") resolves to; an embedder naming a different TaskModel
// supplies its own implementation via WithTaskAdapter.
type TaskAdapter interface {
	TableName() string
	ScanTask(row RowScanner) (models.TaskAccessor, error)
}

type defaultTaskAdapter struct{}

func (defaultTaskAdapter) TableName() string { return "bq_tasks" }

func (defaultTaskAdapter) ScanTask(row RowScanner) (models.TaskAccessor, error) {
	return scanTask(row)
}

// Option configures a Service at construction time.
type Option func(*Service)

// WithTaskAdapter overrides the default bq_tasks/models.Task adapter.
func WithTaskAdapter(adapter TaskAdapter) Option {
	return func(s *Service) { s.adapter = adapter }
}

// Service claims pending tasks and bridges Postgres LISTEN/NOTIFY to wake
// idle workers. Dispatch is the only writer allowed to move a task out of
// PENDING into PROCESSING.
type Service struct {
	pool    Querier
	adapter TaskAdapter
}

// New returns a Service backed by pool, using opts to override its
// defaultTaskAdapter.
func New(pool Querier, opts ...Option) *Service {
	s := &Service{pool: pool, adapter: defaultTaskAdapter{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch atomically claims at most limit PENDING tasks across channels
// whose scheduled_at has arrived, binds them to workerID, and returns the
// claimed rows. The oldest eligible tasks (by created_at) are claimed first;
// the order of the returned slice is not defined. Concurrent callers never observe
// overlapping task ids: the inner SELECT takes row locks with SKIP LOCKED,
// so a row already claimed by another in-flight Dispatch is simply excluded
// rather than waited on.
func (s *Service) Dispatch(ctx context.Context, channels []string, workerID string, limit int) ([]*models.Task, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("dispatch: no channels given")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("dispatch: limit must be positive")
	}

	table := pgx.Identifier{s.adapter.TableName()}.Sanitize()
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		WITH claimed AS (
			SELECT id
			FROM %[1]s
			WHERE state = 'PENDING'
				AND channel = ANY($1)
				AND (scheduled_at IS NULL OR scheduled_at <= now())
			ORDER BY created_at ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		UPDATE %[1]s t
		SET state = 'PROCESSING', worker_id = $3
		FROM claimed
		WHERE t.id = claimed.id
		RETURNING t.id, t.state, t.channel, t.module, t.func_name, t.kwargs,
			t.result, t.error_message, t.worker_id, t.created_at,
			t.scheduled_at, t.parent_id
	`, table), channels, limit, workerID)
	if err != nil {
		return nil, fmt.Errorf("dispatch: claim tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		accessor, err := s.adapter.ScanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("dispatch: scan claimed task: %w", err)
		}
		task, ok := accessor.(*models.Task)
		if !ok {
			return nil, fmt.Errorf("dispatch: adapter %T did not return *models.Task", s.adapter)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dispatch: iterate claimed tasks: %w", err)
	}

	return tasks, nil
}

// DispatchAccessors is Dispatch's storage-adapter-facing counterpart: the
// same claim, exposed through models.TaskAccessor instead of the concrete
// *models.Task, for callers written against a non-default TaskAdapter.
func (s *Service) DispatchAccessors(ctx context.Context, channels []string, workerID string, limit int) ([]models.TaskAccessor, error) {
	tasks, err := s.Dispatch(ctx, channels, workerID, limit)
	if err != nil {
		return nil, err
	}
	accessors := make([]models.TaskAccessor, len(tasks))
	for i, t := range tasks {
		accessors[i] = t
	}
	return accessors, nil
}

// RowScanner is the subset of pgx.Rows Dispatch and other queries need.
type RowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row RowScanner) (*models.Task, error) {
	var t models.Task
	if err := row.Scan(
		&t.ID, &t.State, &t.Channel, &t.Module, &t.FuncName, &t.Kwargs,
		&t.Result, &t.ErrorMessage, &t.WorkerID, &t.CreatedAt,
		&t.ScheduledAt, &t.ParentID,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

// Listen subscribes conn to each of channels. conn must be a dedicated,
// non-pooled connection (see db.NewListenConn): LISTEN is session-scoped and
// a pooled connection can be handed back between statements, silently
// dropping the subscription. conn must not be inside an open transaction.
func Listen(ctx context.Context, conn *pgx.Conn, channels []string) error {
	for _, channel := range channels {
		stmt := fmt.Sprintf("LISTEN %s", pgx.Identifier{channel}.Sanitize())
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("dispatch: listen %s: %w", channel, err)
		}
	}
	return nil
}

// Poll waits up to timeout for a notification on conn. It returns
// ErrTimeout itself (unwrapped) if none arrives in time. conn must not
// be inside an open transaction or notifications will queue until the
// transaction ends instead of being delivered.
func Poll(ctx context.Context, conn *pgx.Conn, timeout time.Duration) (*Notification, error) {
	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	n, err := conn.WaitForNotification(pollCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("dispatch: wait for notification: %w", err)
	}

	return &Notification{PID: n.PID, Channel: n.Channel, Payload: n.Payload}, nil
}

// Notify announces that channels may now have eligible tasks. It is
// typically called right after committing a state change (task insert,
// dead-worker reschedule) that could make tasks dispatchable. set dedups
// repeated channels within the caller's transaction; pass a fresh
// db.NotifySet per transaction.
func Notify(ctx context.Context, tx pgx.Tx, set *db.NotifySet, channels []string) error {
	return set.NotifyAll(ctx, tx, channels)
}
