// Package ctxtask carries the "currently executing task" across a single
// handler invocation so that nested producers can derive parent/child
// lineage without a process-global variable. The value is scoped to the
// context.Context of one handler call, so concurrent handlers never observe
// each other's current task.
package ctxtask

import (
	"context"

	"github.com/beanqueue/bq-go/internal/models"
)

type contextKey struct{}

var currentTaskKey = contextKey{}

// With returns a context carrying task as the ambient current task.
func With(ctx context.Context, task *models.Task) context.Context {
	return context.WithValue(ctx, currentTaskKey, task)
}

// Current returns the ambient current task, if any.
func Current(ctx context.Context) (*models.Task, bool) {
	task, ok := ctx.Value(currentTaskKey).(*models.Task)
	return task, ok
}
