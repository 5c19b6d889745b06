package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTask_Eligible(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name     string
		task     Task
		expected bool
	}{
		{"pending no schedule", Task{State: TaskPending}, true},
		{"pending scheduled in past", Task{State: TaskPending, ScheduledAt: &past}, true},
		{"pending scheduled now", Task{State: TaskPending, ScheduledAt: &now}, true},
		{"pending scheduled in future", Task{State: TaskPending, ScheduledAt: &future}, false},
		{"processing", Task{State: TaskProcessing}, false},
		{"done", Task{State: TaskDone}, false},
		{"failed", Task{State: TaskFailed}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.task.Eligible(now))
		})
	}
}

func TestTask_Accessors(t *testing.T) {
	scheduled := time.Now().UTC()
	workerID := uuid.New()
	task := &Task{
		ID:          uuid.New(),
		State:       TaskProcessing,
		Channel:     "c",
		ScheduledAt: &scheduled,
		WorkerID:    &workerID,
	}

	var accessor TaskAccessor = task
	assert.Equal(t, task.ID, accessor.TaskID())
	assert.Equal(t, TaskProcessing, accessor.TaskState())
	assert.Equal(t, "c", accessor.TaskChannel())
	assert.Equal(t, &scheduled, accessor.TaskScheduledAt())
	assert.Equal(t, &workerID, accessor.TaskOwner())
}

func TestTaskState_Scan(t *testing.T) {
	var s TaskState
	assert.NoError(t, s.Scan("PENDING"))
	assert.Equal(t, TaskPending, s)

	assert.NoError(t, s.Scan([]byte("DONE")))
	assert.Equal(t, TaskDone, s)

	assert.Error(t, s.Scan(42))
}
