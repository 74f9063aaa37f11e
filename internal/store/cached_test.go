package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRegistry struct {
	*Memory
	calls int
}

func (c *countingRegistry) Versions(ctx context.Context, name string) ([]Library, error) {
	c.calls++
	return c.Memory.Versions(ctx, name)
}

func TestCachedRegistry(t *testing.T) {
	ctx := context.Background()
	inner := &countingRegistry{Memory: NewMemory()}
	reg, err := NewCachedRegistry(inner, 8)
	require.NoError(t, err)

	_, err = reg.InsertLibrary(ctx, Library{MachineName: "H5P.Text", MajorVersion: 1})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		libs, err := reg.Versions(ctx, "H5P.Text")
		require.NoError(t, err)
		assert.Len(t, libs, 1)
	}
	assert.Equal(t, 1, inner.calls)

	_, err = reg.InsertLibrary(ctx, Library{MachineName: "H5P.Text", MajorVersion: 2})
	require.NoError(t, err)
	libs, err := reg.Versions(ctx, "H5P.Text")
	require.NoError(t, err)
	assert.Len(t, libs, 2)
	assert.Equal(t, 2, inner.calls)
}

func TestNewCachedRegistryNil(t *testing.T) {
	_, err := NewCachedRegistry(nil, 1)
	assert.Error(t, err)
}
