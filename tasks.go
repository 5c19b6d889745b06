package bq

import "context"

// InsertTask persists task as a new PENDING row. The insert trigger notifies
// task.Channel once this call's transaction (if any, via a.Pool being a
// pgxpool.Pool rather than a tx) commits.
func (a *App) InsertTask(ctx context.Context, task *Task) error {
	_, err := a.Pool.Exec(ctx, `
		INSERT INTO bq_tasks (id, state, channel, module, func_name, kwargs, scheduled_at, parent_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, task.ID, task.State, task.Channel, task.Module, task.FuncName, task.Kwargs, task.ScheduledAt, task.ParentID)
	return err
}
