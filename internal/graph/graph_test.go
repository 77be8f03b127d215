package graph

import (
	"testing"

	"github.com/metrovan/isochrone/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// threeStopArtifacts mirrors SPEC_FULL §8 fixture #1: A-B-C on one route,
// trips every 10 min over a 60-min window, 3-min A->B, 4-min B->C.
func threeStopArtifacts() *models.Artifacts {
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

	return &models.Artifacts{
		ServiceID:     1,
		NetworkEdges:  edges,
		TransferEdges: map[models.TransferEdgeKey]*models.TransferEdge{},
		Stops: map[string]*models.Stop{
			"A": {StopID: "A", Lat: 49.280, Lon: -123.120},
			"B": {StopID: "B", Lat: 49.282, Lon: -123.122},
			"C": {StopID: "C", Lat: 49.284, Lon: -123.124},
		},
		Shapes: map[string]*models.Shape{},
	}
}

func TestBuildSkipsEdgesWithNoTripsInWindow(t *testing.T) {
	artifacts := threeStopArtifacts()
	// Sunday window with no scheduled trips: shift every trip's departure
	// far outside any reasonable window by using a window that doesn't
	// overlap [0, 3780].
	opts := BuildOptions{TimeStr: "20:00", WindowMins: 10, FrequencyModifier: 1, SpeedFactor: 1}

	g, err := Build(artifacts, opts)
	require.NoError(t, err)

	assert.Equal(t, 0, g.EdgeCount())
}

func TestBuildEmitsBoardTravelDeboard(t *testing.T) {
	g, err := Build(threeStopArtifacts(), DefaultBuildOptions("00:30"))
	require.NoError(t, err)

	aEdges := g.Edges(StreetNode("A"))
	require.Len(t, aEdges, 1)
	assert.Equal(t, models.EdgeBoard, aEdges[0].Type)
	assert.Equal(t, RouteNode("A", "R1"), aEdges[0].To)

	travelEdges := g.Edges(RouteNode("A", "R1"))
	require.Len(t, travelEdges, 1)
	assert.Equal(t, models.EdgeTravel, travelEdges[0].Type)
	assert.Equal(t, RouteNode("B", "R1"), travelEdges[0].To)

	// C is the last stop, so its route node carries only the deboard edge
	// (B's route node also has the travel edge on to C).
	deboardEdges := g.Edges(RouteNode("C", "R1"))
	require.Len(t, deboardEdges, 1)
	assert.Equal(t, models.EdgeDeboard, deboardEdges[0].Type)
	assert.Equal(t, StreetNode("C"), deboardEdges[0].To)
	assert.Equal(t, 0.0, deboardEdges[0].Weight)
}

func TestDijkstraRespectsCutoff(t *testing.T) {
	g, err := Build(threeStopArtifacts(), DefaultBuildOptions("00:30"))
	require.NoError(t, err)

	result := g.Dijkstra(StreetNode("A"), 15.0)

	for node, dist := range result.Dist {
		assert.LessOrEqual(t, dist, 15.0, "node %v exceeded cutoff", node)
	}
	_, reachedC := result.Dist[StreetNode("C")]
	// C's street node is reached at about 4.3 (wait) + 3 + 4 + 0 (deboard)
	// = 11.3 min, inside the 15-minute cutoff; if present it must never
	// exceed the cutoff.
	if reachedC {
		assert.LessOrEqual(t, result.Dist[StreetNode("C")], 15.0)
	}
}

func TestVirtualNodeAddRemoveRestoresPurity(t *testing.T) {
	g, err := Build(threeStopArtifacts(), DefaultBuildOptions("00:30"))
	require.NoError(t, err)

	nodesBefore := g.NodeCount()
	edgesBefore := g.EdgeCount()

	userStart := models.Node{StopID: "USER_START"}
	g.Lock()
	g.AddVirtualEdge(userStart, models.Edge{To: StreetNode("A"), Type: models.EdgeWalk, Weight: 2})
	g.Dijkstra(userStart, 0)
	g.RemoveNode(userStart)
	g.Unlock()

	assert.Equal(t, nodesBefore, g.NodeCount())
	assert.Equal(t, edgesBefore, g.EdgeCount())
}

func TestBoardEdgeDedupFirstWins(t *testing.T) {
	g := newGraph()
	street := StreetNode("A")
	route := RouteNode("A", "R1")

	g.addBoardEdge(street, route, 5.0, "R1")
	g.addBoardEdge(street, route, 1.0, "R1") // should be discarded per §9 open question

	edges := g.Edges(street)
	require.Len(t, edges, 1)
	assert.Equal(t, 5.0, edges[0].Weight)
}
