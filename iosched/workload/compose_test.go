package workload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeSpecs_MergesStreams(t *testing.T) {
	a := DefaultSpec(100, 1000, 1, 3) // "reads" only
	b := DefaultSpec(50, 1000, 0, 9)  // "writes" only
	b.Horizon = 5_000_000

	merged, err := ComposeSpecs([]*Spec{a, b})

	require.NoError(t, err)
	assert.Equal(t, int64(3), merged.Seed)
	assert.Equal(t, int64(150), merged.NumRequests)
	assert.Equal(t, int64(5_000_000), merged.Horizon)
	require.Len(t, merged.Streams, 2)
	assert.Equal(t, "reads", merged.Streams[0].ID)
	assert.Equal(t, "writes", merged.Streams[1].ID)

	reqs, err := Generate(merged)
	require.NoError(t, err)
	assert.Len(t, reqs, 150)
}

func TestComposeSpecs_HorizonOnlyInputDropsCount(t *testing.T) {
	a := DefaultSpec(100, 1000, 1, 3)
	b := DefaultSpec(0, 1000, 0, 3)
	b.Horizon = 1_000_000

	merged, err := ComposeSpecs([]*Spec{a, b})
	require.NoError(t, err)
	assert.Zero(t, merged.NumRequests)
	assert.Equal(t, int64(1_000_000), merged.Horizon)
}

func TestComposeSpecs_Errors(t *testing.T) {
	_, err := ComposeSpecs(nil)
	assert.ErrorContains(t, err, "at least one spec")

	// same stream id in both inputs
	_, err = ComposeSpecs([]*Spec{DefaultSpec(10, 100, 1, 1), DefaultSpec(10, 100, 1, 2)})
	assert.ErrorContains(t, err, "duplicate id")
}
