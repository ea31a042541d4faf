package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBounds_UnionOfDisjointBoxes(t *testing.T) {
	a := NewBounds(47.0, -124.0, 47.5, -123.5)
	b := NewBounds(48.0, -123.0, 48.5, -122.0)

	u := a.Union(b)

	assert.InDelta(t, 47.0, u.South(), 1e-9)
	assert.InDelta(t, -124.0, u.West(), 1e-9)
	assert.InDelta(t, 48.5, u.North(), 1e-9)
	assert.InDelta(t, -122.0, u.East(), 1e-9)
	assert.True(t, u.Contains(47.2, -123.8))
	assert.True(t, u.Contains(48.2, -122.5))
	// smallest: nothing beyond the outer corners
	assert.False(t, u.Contains(48.6, -122.5))
	assert.False(t, u.Contains(47.2, -124.1))
}

func TestBounds_UnionWithEmpty(t *testing.T) {
	a := NewBounds(47.0, -124.0, 47.5, -123.5)

	assert.Equal(t, a, EmptyBounds().Union(a))
	assert.Equal(t, a, a.Union(EmptyBounds()))
	assert.True(t, EmptyBounds().Union(EmptyBounds()).IsEmpty())
}

func TestBounds_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(EmptyBounds())
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	data, err = json.Marshal(NewBounds(48.0, -123.1, 48.1, -123.0))
	require.NoError(t, err)

	var corners [2][2]float64
	require.NoError(t, json.Unmarshal(data, &corners))
	assert.InDelta(t, 48.0, corners[0][0], 1e-9)
	assert.InDelta(t, -123.1, corners[0][1], 1e-9)
	assert.InDelta(t, 48.1, corners[1][0], 1e-9)
	assert.InDelta(t, -123.0, corners[1][1], 1e-9)
}

func TestFeatureBounds_Empty(t *testing.T) {
	assert.True(t, FeatureBounds(nil).IsEmpty())
}

func TestBounds_AcrossAntimeridian(t *testing.T) {
	u := NewBounds(10, 170, 11, 171).Union(NewBounds(10, -171, 11, -170))

	assert.InDelta(t, 170.0, u.West(), 1e-9)
	assert.InDelta(t, 190.0, u.East(), 1e-9)
	assert.Less(t, u.West(), u.East())
	assert.True(t, u.Contains(10.5, 179.5))
	assert.False(t, u.Contains(10.5, 0))

	data, err := json.Marshal(u)
	require.NoError(t, err)

	var corners [2][2]float64
	require.NoError(t, json.Unmarshal(data, &corners))
	assert.InDelta(t, 170.0, corners[0][1], 1e-9)
	assert.InDelta(t, 190.0, corners[1][1], 1e-9)
}

func TestFeatureBounds_AcrossAntimeridian(t *testing.T) {
	b := FeatureBounds([]Feature{
		mustFeature(t, "site", "East Cape", "10", "-170", ""),
		mustFeature(t, "site", "West Cape", "11", "175", ""),
	})

	assert.InDelta(t, 175.0, b.West(), 1e-9)
	assert.InDelta(t, 190.0, b.East(), 1e-9)
	assert.InDelta(t, 15.0, b.East()-b.West(), 1e-9)
}
