package bq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/beanqueue/bq-go/internal/ctxtask"
	"github.com/beanqueue/bq-go/internal/models"
	"github.com/beanqueue/bq-go/internal/registry"
	"github.com/beanqueue/bq-go/internal/retrypolicy"
)

// ProcessorOption customizes a handler's registration.
type ProcessorOption func(*registry.Handler)

// WithAutoComplete overrides the default (true) auto-complete behavior.
func WithAutoComplete(autoComplete bool) ProcessorOption {
	return func(h *registry.Handler) { h.AutoComplete = autoComplete }
}

// WithRetryPolicy attaches a retry policy consulted on handler failure.
func WithRetryPolicy(policy retrypolicy.Policy) ProcessorOption {
	return func(h *registry.Handler) { h.RetryPolicy = policy }
}

// WithRetryExceptions gates WithRetryPolicy: only errors matching match
// trigger a retry, others fail the task immediately.
func WithRetryExceptions(match func(error) bool) ProcessorOption {
	return func(h *registry.Handler) { h.RetryExceptions = match }
}

// ProcessorHandle is returned by App.Processor. Handlers obtain a Task
// builder bound to their own (channel, module, name) address through Run.
type ProcessorHandle struct {
	handler *registry.Handler
}

// Processor registers fn under (channel, module, name) and returns a handle
// producers use to build task rows for it.
func (a *App) Processor(channel, module, name string, fn registry.Func, opts ...ProcessorOption) *ProcessorHandle {
	h := registry.NewHandler(channel, module, name, fn)
	for _, opt := range opts {
		opt(h)
	}
	a.Registry.Add(h)
	return &ProcessorHandle{handler: h}
}

// Run constructs (but does not persist) a Task row that will invoke this
// handler, with kwargs marshaled as its JSON payload. If ctx carries an
// ambient current task (set while a handler is executing), the new task's
// ParentID is set to it, giving the caller lineage tracking for free. The
// caller is responsible for inserting the row and committing; the insert
// trigger then notifies the channel.
func (h *ProcessorHandle) Run(ctx context.Context, kwargs any) (*models.Task, error) {
	payload, err := json.Marshal(kwargs)
	if err != nil {
		return nil, fmt.Errorf("bq: marshal kwargs: %w", err)
	}

	task := &models.Task{
		ID:       uuid.New(),
		State:    models.TaskPending,
		Channel:  h.handler.Channel,
		Module:   h.handler.Module,
		FuncName: h.handler.Name,
		Kwargs:   payload,
	}
	if parent, ok := ctxtask.Current(ctx); ok {
		task.ParentID = &parent.ID
	}
	return task, nil
}
