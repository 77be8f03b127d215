package router

import (
	"testing"

	"github.com/metrovan/isochrone/internal/graph"
	"github.com/metrovan/isochrone/internal/models"
	"github.com/metrovan/isochrone/internal/shapestore"
	"github.com/metrovan/isochrone/internal/stopindex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// threeStopFixture mirrors SPEC_FULL §8 fixture #1/#3: A-B-C on one route,
// trips every 10 min, 3-min A->B, 4-min B->C, with shape S1 at distances
// 0, 500, 900.
func threeStopFixture() (*graph.Graph, *stopindex.Index, *shapestore.Store) {
	edges := map[models.NetworkEdgeKey]*models.NetworkEdge{}
	key1 := models.NetworkEdgeKey{U: "A", V: "B", Route: "R1"}
	key2 := models.NetworkEdgeKey{U: "B", V: "C", Route: "R1"}

	var trips1, trips2 []models.Trip
	for dept := 0; dept <= 3600; dept += 600 {
		trips1 = append(trips1, models.Trip{DeptSec: dept, DurSec: 180})
		trips2 = append(trips2, models.Trip{DeptSec: dept + 180, DurSec: 240})
	}
	edges[key1] = &models.NetworkEdge{Key: key1, ShapeID: "S1", DistU: 0, DistV: 500, Trips: trips1}
	edges[key2] = &models.NetworkEdge{Key: key2, ShapeID: "S1", DistU: 500, DistV: 900, Trips: trips2}

	stops := map[string]*models.Stop{
		"A": {StopID: "A", Name: "Stop A", Lat: 49.2800, Lon: -123.1200},
		"B": {StopID: "B", Name: "Stop B", Lat: 49.2818, Lon: -123.1218},
		"C": {StopID: "C", Name: "Stop C", Lat: 49.2836, Lon: -123.1236},
	}

	artifacts := &models.Artifacts{
		ServiceID:     1,
		NetworkEdges:  edges,
		TransferEdges: map[models.TransferEdgeKey]*models.TransferEdge{},
		Stops:         stops,
		Shapes: map[string]*models.Shape{
			"S1": {
				ShapeID: "S1",
				Dists:   []float64{0, 500, 900},
				Coords: [][2]float64{
					{-123.1200, 49.2800},
					{-123.1218, 49.2818},
					{-123.1236, 49.2836},
				},
			},
		},
	}

	g, err := graph.Build(artifacts, graph.DefaultBuildOptions("00:30"))
	if err != nil {
		panic(err)
	}
	idx := stopindex.Build(stops)
	shapes := shapestore.Build(artifacts.Shapes)
	return g, idx, shapes
}

func TestIsochroneReturnsEmptyWhenNoNearbyStops(t *testing.T) {
	g, idx, _ := threeStopFixture()
	_, err := Isochrone(g, idx, 10.0, 10.0, DefaultSnapOptions(15), nil)
	require.Error(t, err)
}

func TestIsochroneRestoresGraphPurityOnSuccess(t *testing.T) {
	g, idx, _ := threeStopFixture()
	nodesBefore := g.NodeCount()
	edgesBefore := g.EdgeCount()

	_, _ = Isochrone(g, idx, 49.2800, -123.1200, DefaultSnapOptions(15), nil)

	assert.Equal(t, nodesBefore, g.NodeCount())
	assert.Equal(t, edgesBefore, g.EdgeCount())
}

func TestIsochroneRestoresGraphPurityOnFailure(t *testing.T) {
	g, idx, _ := threeStopFixture()
	nodesBefore := g.NodeCount()
	edgesBefore := g.EdgeCount()

	_, _ = Isochrone(g, idx, 10.0, 10.0, DefaultSnapOptions(15), nil)

	assert.Equal(t, nodesBefore, g.NodeCount())
	assert.Equal(t, edgesBefore, g.EdgeCount())
}

func TestRouteReconstructsCoordinatesViaShapeSlice(t *testing.T) {
	g, idx, shapes := threeStopFixture()

	// A 100 m walk cap snaps the origin only to A and the destination only
	// to C, so the path has to ride A->B->C rather than walk directly.
	opts := DefaultSnapOptions(60)
	opts.MaxWalkKm = 0.1
	path, err := Route(g, idx, shapes, 49.2800, -123.1200, 49.2836, -123.1236, opts)
	require.NoError(t, err)
	require.NotNil(t, path)

	assert.NotEmpty(t, path.Coordinates)
	// B's point comes only from slice(S1, 0, 500); the route never stops at B.
	assert.Contains(t, path.Coordinates, [2]float64{-123.1218, 49.2818})
	assert.NotEmpty(t, path.Polyline)
	assert.Greater(t, path.TotalMinutes, 0.0)
	// first and last coordinates are the raw origin/destination, not a stop.
	assert.Equal(t, -123.1200, path.Coordinates[0][0])
	assert.Equal(t, -123.1236, path.Coordinates[len(path.Coordinates)-1][0])
}

func TestRouteOutOfServiceWhenDestinationTooFar(t *testing.T) {
	g, idx, shapes := threeStopFixture()
	_, err := Route(g, idx, shapes, 49.2800, -123.1200, 60.0, 60.0, DefaultSnapOptions(60))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrOutOfService)
}
