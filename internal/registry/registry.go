// Package registry resolves a handler by (channel, module, name), invokes
// it inside a savepoint, and records the outcome.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/beanqueue/bq-go/internal/ctxtask"
	"github.com/beanqueue/bq-go/internal/db"
	"github.com/beanqueue/bq-go/internal/logger"
	"github.com/beanqueue/bq-go/internal/models"
)

var log = logger.WithComponent("registry")

// Registry is a three-level mapping channel -> module -> name -> Handler.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]map[string]map[string]*Handler
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{handlers: make(map[string]map[string]map[string]*Handler)}
}

// Add registers h under (h.Channel, h.Module, h.Name), replacing any
// previous registration at that address.
func (r *Registry) Add(h *Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	modules, ok := r.handlers[h.Channel]
	if !ok {
		modules = make(map[string]map[string]*Handler)
		r.handlers[h.Channel] = modules
	}
	names, ok := modules[h.Module]
	if !ok {
		names = make(map[string]*Handler)
		modules[h.Module] = names
	}
	names[h.Name] = h
}

// Lookup resolves the handler registered for (channel, module, name).
func (r *Registry) Lookup(channel, module, name string) (*Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	modules, ok := r.handlers[channel]
	if !ok {
		return nil, false
	}
	names, ok := modules[module]
	if !ok {
		return nil, false
	}
	h, ok := names[name]
	return h, ok
}

// Process resolves task's handler and runs it inside tx, recording the
// outcome (state transition, result, events) both on task in-memory and in
// tx (an UPDATE of the task row plus any event INSERT); the caller is
// responsible for committing tx. If no
// handler is registered the task is marked FAILED directly, without opening
// a savepoint.
func (r *Registry) Process(ctx context.Context, tx pgx.Tx, task *models.Task) error {
	handler, ok := r.Lookup(task.Channel, task.Module, task.FuncName)
	if !ok {
		msg := fmt.Sprintf("cannot find processor for channel=%s module=%s func=%s", task.Channel, task.Module, task.FuncName)
		logger.WithTask(task.ID.String()).Error().Str("channel", task.Channel).Str("module", task.Module).Str("func", task.FuncName).Msg("no registered handler")
		task.State = models.TaskFailed
		task.ErrorMessage = &msg
		return persistTaskState(ctx, tx, task)
	}
	return process(ctx, tx, handler, task)
}

func process(ctx context.Context, tx pgx.Tx, handler *Handler, task *models.Task) error {
	hctx := ctxtask.With(ctx, task)

	sp, err := db.NewSavepoint(hctx, tx, "handler")
	if err != nil {
		log.Error().Err(err).Str("task_id", task.ID.String()).Msg("open handler savepoint failed")
		return fmt.Errorf("registry: open savepoint: %w", err)
	}

	hc := &Context{Ctx: hctx, Task: task, Tx: tx, Savepoint: sp}
	result, callErr := handler.Func(hc)

	if callErr == nil {
		if err := sp.Release(hctx); err != nil {
			return fmt.Errorf("registry: release savepoint: %w", err)
		}
		if handler.AutoComplete {
			task.State = models.TaskDone
			resultJSON, err := json.Marshal(result)
			if err != nil {
				return fmt.Errorf("registry: marshal result: %w", err)
			}
			task.Result = resultJSON
			if err := recordEvent(ctx, tx, task.ID, models.EventComplete, nil, nil); err != nil {
				return err
			}
		}
		return persistTaskState(ctx, tx, task)
	}

	if err := sp.Rollback(hctx); err != nil {
		return fmt.Errorf("registry: rollback savepoint: %w", err)
	}
	errMsg := callErr.Error()
	task.ErrorMessage = &errMsg

	retryable := handler.RetryPolicy != nil && (handler.RetryExceptions == nil || handler.RetryExceptions(callErr))
	if retryable {
		delay, err := handler.RetryPolicy(ctx, tx, task)
		if err != nil {
			return fmt.Errorf("registry: evaluate retry policy: %w", err)
		}
		if delay != nil {
			scheduledAt, err := scheduleRetry(ctx, tx, task.ID, *delay)
			if err != nil {
				return err
			}
			task.State = models.TaskPending
			task.ScheduledAt = &scheduledAt
			task.WorkerID = nil
			if err := recordEvent(ctx, tx, task.ID, models.EventFailedRetryScheduled, task.ErrorMessage, &scheduledAt); err != nil {
				return err
			}
			return persistTaskState(ctx, tx, task)
		}
	}

	task.State = models.TaskFailed
	if err := recordEvent(ctx, tx, task.ID, models.EventFailed, task.ErrorMessage, nil); err != nil {
		return err
	}
	return persistTaskState(ctx, tx, task)
}

func persistTaskState(ctx context.Context, tx pgx.Tx, task *models.Task) error {
	_, err := tx.Exec(ctx, `
		UPDATE bq_tasks
		SET state = $2, result = $3, error_message = $4, worker_id = $5, scheduled_at = $6
		WHERE id = $1
	`, task.ID, task.State, task.Result, task.ErrorMessage, task.WorkerID, task.ScheduledAt)
	if err != nil {
		return fmt.Errorf("registry: persist task state: %w", err)
	}
	return nil
}

func recordEvent(ctx context.Context, tx pgx.Tx, taskID uuid.UUID, typ models.EventType, errMsg *string, scheduledAt *time.Time) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO bq_events (id, type, task_id, error_message, scheduled_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New(), typ, taskID, errMsg, scheduledAt)
	if err != nil {
		return fmt.Errorf("registry: record event: %w", err)
	}
	return nil
}

// scheduleRetry resolves the retry timestamp against the database's own
// clock (now() + delay), per the decision that "now" is always the
// database's, never the worker's.
func scheduleRetry(ctx context.Context, tx pgx.Tx, taskID uuid.UUID, delay time.Duration) (time.Time, error) {
	var scheduledAt time.Time
	err := tx.QueryRow(ctx, `SELECT now() + $1::interval`, fmt.Sprintf("%f seconds", delay.Seconds())).Scan(&scheduledAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("registry: resolve retry time: %w", err)
	}
	return scheduledAt, nil
}
