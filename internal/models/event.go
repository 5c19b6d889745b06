package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType distinguishes the kinds of lifecycle events recorded for a task.
type EventType string

const (
	EventComplete              EventType = "COMPLETE"
	EventFailed                EventType = "FAILED"
	EventFailedRetryScheduled  EventType = "FAILED_RETRY_SCHEDULED"
)

func (t EventType) String() string { return string(t) }

func (t *EventType) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*t = EventType(v)
	case []byte:
		*t = EventType(v)
	case nil:
		*t = ""
	default:
		return fmt.Errorf("models: cannot scan %T into EventType", src)
	}
	return nil
}

func (t EventType) Value() (driver.Value, error) {
	return string(t), nil
}

// Event is a write-once entry in a task's append-only outcome log.
type Event struct {
	ID           uuid.UUID
	Type         EventType
	TaskID       uuid.UUID
	ErrorMessage *string
	ScheduledAt  *time.Time
	CreatedAt    time.Time
}
