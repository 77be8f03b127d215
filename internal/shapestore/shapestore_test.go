package shapestore

import (
	"testing"

	"github.com/metrovan/isochrone/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleShape() *models.Shape {
	return &models.Shape{
		ShapeID: "S1",
		Dists:   []float64{0, 100, 500, 900, 1200},
		Coords: [][2]float64{
			{-123.10, 49.28},
			{-123.11, 49.29},
			{-123.12, 49.30},
			{-123.13, 49.31},
			{-123.14, 49.32},
		},
	}
}

func TestSliceReturnsContiguousSubsequence(t *testing.T) {
	store := Build(map[string]*models.Shape{"S1": sampleShape()})

	coords, err := store.Slice("S1", 0, 500)

	require.NoError(t, err)
	assert.NotEmpty(t, coords)
	assert.Equal(t, [2]float64{-123.11, 49.29}, coords[0])
	assert.Equal(t, [2]float64{-123.12, 49.30}, coords[len(coords)-1])
}

func TestSliceUnknownShapeIsDataInconsistency(t *testing.T) {
	store := Build(map[string]*models.Shape{"S1": sampleShape()})

	_, err := store.Slice("does-not-exist", 0, 100)

	assert.ErrorIs(t, err, models.ErrDataInconsistency)
}

func TestSliceDegenerateSegmentStillNonEmpty(t *testing.T) {
	store := Build(map[string]*models.Shape{"S1": sampleShape()})

	coords, err := store.Slice("S1", 500, 500)

	require.NoError(t, err)
	assert.NotEmpty(t, coords)
}

func TestFromGTFSPointsSortsByDistance(t *testing.T) {
	points := []models.GTFSShapePoint{
		{ShapeID: "S2", Lat: 49.30, Lon: -123.12, Sequence: 2, DistTraveled: 500},
		{ShapeID: "S2", Lat: 49.28, Lon: -123.10, Sequence: 0, DistTraveled: 0},
		{ShapeID: "S2", Lat: 49.29, Lon: -123.11, Sequence: 1, DistTraveled: 100},
	}

	shapes := FromGTFSPoints(points)

	require.Contains(t, shapes, "S2")
	shape := shapes["S2"]
	assert.Equal(t, []float64{0, 100, 500}, shape.Dists)
	assert.Equal(t, [2]float64{-123.10, 49.28}, shape.Coords[0])
}
