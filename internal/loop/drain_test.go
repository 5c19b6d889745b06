package loop

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/beanqueue/bq-go/internal/models"
)

func TestUniqueChannels(t *testing.T) {
	tasks := []*models.Task{
		{Channel: "a"},
		{Channel: "b"},
		{Channel: "a"},
	}
	assert.Equal(t, []string{"a", "b"}, uniqueChannels(tasks))
}

func TestCountChannel(t *testing.T) {
	tasks := []*models.Task{
		{Channel: "a"},
		{Channel: "b"},
		{Channel: "a"},
	}
	assert.Equal(t, 2, countChannel(tasks, "a"))
	assert.Equal(t, 1, countChannel(tasks, "b"))
	assert.Equal(t, 0, countChannel(tasks, "c"))
}
