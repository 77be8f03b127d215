package geo

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildIsochroneUnionOfTwoOverlappingDisks(t *testing.T) {
	disks := []Disk{
		{X: 0, Y: 0, Radius: 100},
		{X: 150, Y: 0, Radius: 100},
	}

	mp, err := BuildIsochrone(disks, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, mp, "overlapping disks should union into a non-empty shape")
}

func TestBuildIsochroneEmptyWhenNoDisks(t *testing.T) {
	mp, err := BuildIsochrone(nil, nil)
	require.NoError(t, err)
	assert.Nil(t, mp)
}

func TestBuildIsochroneKeepsSeededComponents(t *testing.T) {
	// Two disks far enough apart to form separate components. Each disk's
	// centre cell is a seed, so both components should survive; this
	// asserts the seed filter doesn't wrongly drop them.
	disks := []Disk{
		{X: 0, Y: 0, Radius: 50},
		{X: 100000, Y: 100000, Radius: 50},
	}
	mp, err := BuildIsochrone(disks, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, mp)
}

func TestRingContainsSimpleSquare(t *testing.T) {
	square := orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}
	assert.True(t, ringContains(square, 5, 5))
	assert.False(t, ringContains(square, 15, 15))
}

func TestMultiPolygonContainsRespectsHoles(t *testing.T) {
	outer := orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}
	hole := orb.Ring{{4, 4}, {6, 4}, {6, 6}, {4, 6}, {4, 4}}
	mp := orb.MultiPolygon{orb.Polygon{outer, hole}}

	assert.True(t, multiPolygonContains(mp, 1, 1))
	assert.False(t, multiPolygonContains(mp, 5, 5))
}
