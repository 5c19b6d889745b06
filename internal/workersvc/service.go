// Package workersvc tracks worker liveness: heartbeat writes, dead-worker
// detection via skip-locked reaping, and rescheduling the in-flight tasks a
// dead worker left behind.
package workersvc

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/beanqueue/bq-go/internal/models"
)

// Executor is the subset of *pgxpool.Pool / pgx.Tx the service needs.
type Executor interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// WorkerAdapter names the table workersvc.Service reads/writes; rows are
// always scanned into *models.Worker. defaultWorkerAdapter is what
// ModelsConfig's default ("") resolves to.
type WorkerAdapter interface {
	TableName() string
}

type defaultWorkerAdapter struct{}

func (defaultWorkerAdapter) TableName() string { return "bq_workers" }

// Option configures a Service at construction time.
type Option func(*Service)

// WithWorkerAdapter overrides the default bq_workers/models.Worker adapter.
func WithWorkerAdapter(adapter WorkerAdapter) Option {
	return func(s *Service) { s.adapter = adapter }
}

// Service reads and writes bq_workers rows.
type Service struct {
	db      Executor
	adapter WorkerAdapter
}

// New returns a Service backed by db (a pool or an open transaction), using
// opts to override its defaultWorkerAdapter.
func New(db Executor, opts ...Option) *Service {
	s := &Service{db: db, adapter: defaultWorkerAdapter{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) table() string {
	return pgx.Identifier{s.adapter.TableName()}.Sanitize()
}

// WithExecutor returns a Service bound to a different Executor (typically an
// open transaction) but the same WorkerAdapter, for callers that open a
// transaction internally and need to keep using the caller's configured
// adapter rather than silently reverting to the default.
func (s *Service) WithExecutor(db Executor) *Service {
	return &Service{db: db, adapter: s.adapter}
}

// MakeWorker constructs an unpersisted Worker. Callers insert it themselves.
func MakeWorker(name string, channels []string) *models.Worker {
	return models.NewWorker(name, channels)
}

// GetWorker fetches a worker by id, returning (nil, nil) if it does not exist.
func (s *Service) GetWorker(ctx context.Context, id uuid.UUID) (*models.Worker, error) {
	row := s.db.QueryRow(ctx, fmt.Sprintf(`
		SELECT id, state, name, channels, last_heartbeat, created_at
		FROM %s WHERE id = $1
	`, s.table()), id)

	var w models.Worker
	err := row.Scan(&w.ID, &w.State, &w.Name, &w.Channels, &w.LastHeartbeat, &w.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("workersvc: get worker: %w", err)
	}
	return &w, nil
}

// UpdateHeartbeat sets last_heartbeat to the database's current time.
func (s *Service) UpdateHeartbeat(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, fmt.Sprintf(`UPDATE %s SET last_heartbeat = now() WHERE id = $1`, s.table()), id)
	if err != nil {
		return fmt.Errorf("workersvc: update heartbeat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("workersvc: update heartbeat: worker %s not found", id)
	}
	return nil
}

// FetchDeadWorkers atomically marks up to limit RUNNING workers whose
// last_heartbeat is older than timeoutSeconds as NO_HEARTBEAT, and returns
// the full rows. SKIP LOCKED means two surviving workers racing this call
// never both claim the same zombie.
func (s *Service) FetchDeadWorkers(ctx context.Context, timeoutSeconds float64, limit int) ([]*models.Worker, error) {
	if limit <= 0 {
		limit = 5
	}

	table := s.table()
	rows, err := s.db.Query(ctx, fmt.Sprintf(`
		WITH dead AS (
			SELECT id
			FROM %[1]s
			WHERE state = 'RUNNING'
				AND last_heartbeat < now() - make_interval(secs => $1)
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		UPDATE %[1]s w
		SET state = 'NO_HEARTBEAT'
		FROM dead
		WHERE w.id = dead.id
		RETURNING w.id, w.state, w.name, w.channels, w.last_heartbeat, w.created_at
	`, table), timeoutSeconds, limit)
	if err != nil {
		return nil, fmt.Errorf("workersvc: fetch dead workers: %w", err)
	}
	defer rows.Close()

	var dead []*models.Worker
	for rows.Next() {
		var w models.Worker
		if err := rows.Scan(&w.ID, &w.State, &w.Name, &w.Channels, &w.LastHeartbeat, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("workersvc: scan dead worker: %w", err)
		}
		dead = append(dead, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("workersvc: iterate dead workers: %w", err)
	}

	return dead, nil
}

// RescheduleDeadTasks resets to PENDING (clearing worker_id) every task in
// PROCESSING owned by one of workerIDs, returning the affected count and the
// distinct channels touched so the caller can notify them. This writes
// through dispatch's table (the WorkerAdapter here only names the worker
// table), so it stays pinned to bq_tasks; an embedder pairing a non-default
// WorkerAdapter with a non-default dispatch.TaskAdapter is responsible for
// keeping the two table names in sync.
func (s *Service) RescheduleDeadTasks(ctx context.Context, workerIDs []uuid.UUID) (count int64, channels []string, err error) {
	if len(workerIDs) == 0 {
		return 0, nil, nil
	}

	rows, err := s.db.Query(ctx, `
		UPDATE bq_tasks
		SET state = 'PENDING', worker_id = NULL
		WHERE worker_id = ANY($1) AND state = 'PROCESSING'
		RETURNING channel
	`, workerIDs)
	if err != nil {
		return 0, nil, fmt.Errorf("workersvc: reschedule dead tasks: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var channel string
		if err := rows.Scan(&channel); err != nil {
			return 0, nil, fmt.Errorf("workersvc: scan rescheduled task channel: %w", err)
		}
		count++
		if _, ok := seen[channel]; !ok {
			seen[channel] = struct{}{}
			channels = append(channels, channel)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("workersvc: iterate rescheduled tasks: %w", err)
	}

	return count, channels, nil
}
