package loop

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/beanqueue/bq-go/internal/models"
	"github.com/beanqueue/bq-go/internal/registry"
)

func TestWorker_InitialState(t *testing.T) {
	w := New(nil, registry.New(), Config{Channels: []string{"default"}})
	assert.Equal(t, StateInit, w.State())
	assert.Equal(t, models.WorkerRunning, w.WorkerState())
	assert.Equal(t, "init", w.State().String())
}

func TestWorker_DefaultBatchSize(t *testing.T) {
	w := New(nil, registry.New(), Config{})
	assert.Equal(t, 1, w.cfg.BatchSize)
}

func TestState_String(t *testing.T) {
	cases := map[State]string{
		StateInit:       "init",
		StateRegistered: "registered",
		StateListening:  "listening",
		StateDraining:   "draining",
		StateShutdown:   "shutdown",
		State(99):       "unknown",
	}
	for state, want := range cases {
		assert.Equal(t, want, state.String())
	}
}
