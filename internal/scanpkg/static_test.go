package scanpkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beanqueue/bq-go/internal/registry"
)

func TestStatic_ScanReturnsRegistered(t *testing.T) {
	s := NewStatic()
	h := registry.NewHandler("c", "m", "add", func(c *registry.Context) (any, error) { return nil, nil })
	s.Register(Descriptor{Module: "m", Name: "add", Handler: h})

	descs, err := s.Scan([]string{"ignored"})
	require.NoError(t, err)
	require.Len(t, descs, 1)
	assert.Equal(t, "add", descs[0].Name)
}

func TestStatic_ScanEmpty(t *testing.T) {
	s := NewStatic()
	descs, err := s.Scan(nil)
	require.NoError(t, err)
	assert.Empty(t, descs)
}
