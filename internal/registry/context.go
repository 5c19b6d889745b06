package registry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/beanqueue/bq-go/internal/db"
	"github.com/beanqueue/bq-go/internal/models"
)

// Context is the small object handed to a handler in place of Python's
// name-based parameter injection: handlers pull out the task, the
// transaction, or the savepoint by field instead of by declared parameter
// name.
type Context struct {
	Ctx       context.Context
	Task      *models.Task
	Tx        pgx.Tx
	Savepoint *db.Savepoint
}

// Bind unmarshals the task's kwargs payload into v.
func (c *Context) Bind(v any) error {
	if len(c.Task.Kwargs) == 0 {
		return nil
	}
	if err := json.Unmarshal(c.Task.Kwargs, v); err != nil {
		return fmt.Errorf("registry: bind kwargs: %w", err)
	}
	return nil
}
