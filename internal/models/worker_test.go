package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewWorker(t *testing.T) {
	w := NewWorker("w1", []string{"c"})
	assert.NotEmpty(t, w.ID)
	assert.Equal(t, WorkerRunning, w.State)
	assert.Equal(t, "w1", w.Name)
	assert.Equal(t, []string{"c"}, w.Channels)
}

func TestWorker_Accessors(t *testing.T) {
	w := NewWorker("w1", []string{"c", "d"})

	var accessor WorkerAccessor = w
	assert.Equal(t, w.ID, accessor.WorkerID())
	assert.Equal(t, WorkerRunning, accessor.WorkerLifecycleState())
	assert.Equal(t, []string{"c", "d"}, accessor.WorkerChannels())
	assert.WithinDuration(t, time.Now().UTC(), accessor.WorkerLastHeartbeat(), time.Second)
}

func TestWorkerState_Scan(t *testing.T) {
	var s WorkerState
	assert.NoError(t, s.Scan("RUNNING"))
	assert.Equal(t, WorkerRunning, s)

	assert.NoError(t, s.Scan([]byte("SHUTDOWN")))
	assert.Equal(t, WorkerShutdown, s)

	assert.Error(t, s.Scan(42))
}
