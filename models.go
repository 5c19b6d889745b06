package bq

import "github.com/beanqueue/bq-go/internal/models"

// Task, Worker, Event and their state enums are re-exported so callers
// outside this module never need to import internal/models directly.
type (
	Task        = models.Task
	TaskState   = models.TaskState
	Worker      = models.Worker
	WorkerState = models.WorkerState
	Event       = models.Event
	EventType   = models.EventType
)

const (
	TaskPending    = models.TaskPending
	TaskProcessing = models.TaskProcessing
	TaskDone       = models.TaskDone
	TaskFailed     = models.TaskFailed

	WorkerRunning     = models.WorkerRunning
	WorkerShutdown    = models.WorkerShutdown
	WorkerNoHeartbeat = models.WorkerNoHeartbeat

	EventComplete             = models.EventComplete
	EventFailed               = models.EventFailed
	EventFailedRetryScheduled = models.EventFailedRetryScheduled
)
