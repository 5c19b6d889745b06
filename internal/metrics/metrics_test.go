package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistration(t *testing.T) {
	assert.NotNil(t, TasksDispatched)
	assert.NotNil(t, DispatchBatchSize)
	assert.NotNil(t, PollTimeouts)

	assert.NotNil(t, TasksCompleted)
	assert.NotNil(t, TaskProcessingDuration)
	assert.NotNil(t, TaskRetriesScheduled)
	assert.NotNil(t, MissingHandler)

	assert.NotNil(t, ActiveWorkers)
	assert.NotNil(t, HeartbeatsSent)
	assert.NotNil(t, WorkersReaped)
	assert.NotNil(t, TasksRescheduled)
}

func TestRecordDispatch(t *testing.T) {
	TasksDispatched.Reset()
	DispatchBatchSize.Reset()

	RecordDispatch("c", 3)
	RecordDispatch("c", 0)
}

func TestRecordCompletion(t *testing.T) {
	TasksCompleted.Reset()
	TaskProcessingDuration.Reset()

	RecordCompletion("c", "m", "add", "done", 0.01)
	RecordCompletion("c", "m", "add", "failed", 0.02)
}

func TestRecordRetryScheduled(t *testing.T) {
	TaskRetriesScheduled.Reset()

	RecordRetryScheduled("c", "m", "add")
}

func TestRecordMissingHandler(t *testing.T) {
	MissingHandler.Reset()

	RecordMissingHandler("c", "m", "nope")
}

func TestRecordReap(t *testing.T) {
	RecordReap(2, 5)
}
