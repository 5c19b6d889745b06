package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskState is the lifecycle state of a Task.
type TaskState string

const (
	TaskPending    TaskState = "PENDING"
	TaskProcessing TaskState = "PROCESSING"
	TaskDone       TaskState = "DONE"
	TaskFailed     TaskState = "FAILED"
)

func (s TaskState) String() string { return string(s) }

// Scan implements sql.Scanner so pgx can read the column directly into TaskState.
func (s *TaskState) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = TaskState(v)
	case []byte:
		*s = TaskState(v)
	case nil:
		*s = ""
	default:
		return fmt.Errorf("models: cannot scan %T into TaskState", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (s TaskState) Value() (driver.Value, error) {
	return string(s), nil
}

// Task is a unit of work dispatched to at most one worker at a time.
//
// Eligible for dispatch iff State == TaskPending and (ScheduledAt is nil or
// ScheduledAt <= now).
type Task struct {
	ID           uuid.UUID
	State        TaskState
	Channel      string
	Module       string
	FuncName     string
	Kwargs       json.RawMessage
	Result       json.RawMessage
	ErrorMessage *string
	WorkerID     *uuid.UUID
	CreatedAt    time.Time
	ScheduledAt  *time.Time
	ParentID     *uuid.UUID
}

// Eligible reports whether the task can be claimed by a dispatch call
// evaluated at the given instant.
func (t *Task) Eligible(now time.Time) bool {
	if t.State != TaskPending {
		return false
	}
	return t.ScheduledAt == nil || !t.ScheduledAt.After(now)
}

// TaskAccessor exposes the fields a storage adapter must surface for
// dispatch.Service to operate on a task without
// depending on the concrete Task struct: id, state, channel, the scheduling
// fields, and the owning worker. *Task is the implementation bq ships by
// default; an embedder naming a different adapter in ModelsConfig.TaskModel
// supplies its own.
type TaskAccessor interface {
	TaskID() uuid.UUID
	TaskState() TaskState
	TaskChannel() string
	TaskScheduledAt() *time.Time
	TaskOwner() *uuid.UUID
}

func (t *Task) TaskID() uuid.UUID          { return t.ID }
func (t *Task) TaskState() TaskState        { return t.State }
func (t *Task) TaskChannel() string         { return t.Channel }
func (t *Task) TaskScheduledAt() *time.Time { return t.ScheduledAt }
func (t *Task) TaskOwner() *uuid.UUID       { return t.WorkerID }
