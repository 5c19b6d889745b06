package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// WorkerState is the lifecycle state of a Worker.
type WorkerState string

const (
	WorkerRunning     WorkerState = "RUNNING"
	WorkerShutdown    WorkerState = "SHUTDOWN"
	WorkerNoHeartbeat WorkerState = "NO_HEARTBEAT"
)

func (s WorkerState) String() string { return string(s) }

func (s *WorkerState) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = WorkerState(v)
	case []byte:
		*s = WorkerState(v)
	case nil:
		*s = ""
	default:
		return fmt.Errorf("models: cannot scan %T into WorkerState", src)
	}
	return nil
}

func (s WorkerState) Value() (driver.Value, error) {
	return string(s), nil
}

// Worker is a process competing for tasks on a set of channels.
type Worker struct {
	ID             uuid.UUID
	State          WorkerState
	Name           string
	Channels       []string
	LastHeartbeat  time.Time
	CreatedAt      time.Time
}

// NewWorker constructs an unpersisted Worker with a fresh id.
func NewWorker(name string, channels []string) *Worker {
	now := time.Now().UTC()
	return &Worker{
		ID:            uuid.New(),
		State:         WorkerRunning,
		Name:          name,
		Channels:      channels,
		LastHeartbeat: now,
		CreatedAt:     now,
	}
}

// WorkerAccessor is the storage-adapter counterpart of TaskAccessor: the
// liveness fields of a worker, without the concrete Worker struct. *Worker
// is the implementation bq ships by default; workersvc.Service itself reads
// and returns *Worker directly.
type WorkerAccessor interface {
	WorkerID() uuid.UUID
	WorkerLifecycleState() WorkerState
	WorkerChannels() []string
	WorkerLastHeartbeat() time.Time
}

func (w *Worker) WorkerID() uuid.UUID             { return w.ID }
func (w *Worker) WorkerLifecycleState() WorkerState { return w.State }
func (w *Worker) WorkerChannels() []string          { return w.Channels }
func (w *Worker) WorkerLastHeartbeat() time.Time    { return w.LastHeartbeat }
