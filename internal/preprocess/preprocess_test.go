package preprocess

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/metrovan/isochrone/internal/gtfsfeed"
	"github.com/metrovan/isochrone/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// threeStopFeed builds the fixture #1 network from SPEC_FULL §8: A-B-C on
// one route, trips every 10 min over a 60-min window, 3-min A->B, 4-min B->C.
func threeStopFeed() *gtfsfeed.Feed {
	feed := &gtfsfeed.Feed{
		Stops: []models.GTFSStop{
			{StopID: "A", StopName: "Stop A", Lat: 49.28, Lon: -123.12},
			{StopID: "B", StopName: "Stop B", Lat: 49.29, Lon: -123.13},
			{StopID: "C", StopName: "Stop C", Lat: 49.30, Lon: -123.14},
		},
		Routes: []models.GTFSRoute{
			{RouteID: "R1", ShortName: "R1", LongName: " Test Line"},
		},
	}

	deptTimes := []int{0, 600, 1200, 1800, 2400, 3000, 3600}
	for i, dept := range deptTimes {
		tripID := "T" + string(rune('0'+i))
		feed.Trips = append(feed.Trips, models.GTFSTrip{
			RouteID: "R1", ServiceID: "1", TripID: tripID, ShapeID: "S1",
		})
		feed.StopTimes = append(feed.StopTimes,
			models.GTFSStopTime{TripID: tripID, StopID: "A", StopSequence: 1, ArrivalSec: dept, DepartureSec: dept},
			models.GTFSStopTime{TripID: tripID, StopID: "B", StopSequence: 2, ArrivalSec: dept + 180, DepartureSec: dept + 180},
			models.GTFSStopTime{TripID: tripID, StopID: "C", StopSequence: 3, ArrivalSec: dept + 180 + 240, DepartureSec: dept + 180 + 240},
		)
	}
	return feed
}

func TestBuildNetworkEdgesNoSelfLoops(t *testing.T) {
	artifacts, err := Build(threeStopFeed(), 1)
	require.NoError(t, err)

	for key := range artifacts.NetworkEdges {
		assert.NotEqual(t, key.U, key.V)
	}
}

func TestBuildNetworkEdgesGroupsTripsByKey(t *testing.T) {
	artifacts, err := Build(threeStopFeed(), 1)
	require.NoError(t, err)

	key := models.NetworkEdgeKey{U: "A", V: "B", Route: "R1 Test Line"}
	edge, ok := artifacts.NetworkEdges[key]
	require.True(t, ok)
	assert.Len(t, edge.Trips, 7)
	for _, trip := range edge.Trips {
		assert.Equal(t, 180, trip.DurSec)
	}
}

func TestBuildFiltersByServiceID(t *testing.T) {
	artifacts, err := Build(threeStopFeed(), 2) // Saturday: no trips have ServiceID "2"
	require.NoError(t, err)

	assert.Empty(t, artifacts.NetworkEdges)
}

func TestBuildTransferEdgesKeepsMinimum(t *testing.T) {
	half := 200
	full := 100
	raw := []models.GTFSTransfer{
		{FromStopID: "A", ToStopID: "B", MinTransferTime: &half},
		{FromStopID: "A", ToStopID: "B", MinTransferTime: &full},
	}

	edges := buildTransferEdges(raw)

	key := models.TransferEdgeKey{U: "A", V: "B"}
	require.Contains(t, edges, key)
	assert.Equal(t, 50, edges[key].TimeSec) // min(200,100)/2 applied per-row, then min kept
}

func TestBuildTransferEdgesNullBecomesZero(t *testing.T) {
	raw := []models.GTFSTransfer{{FromStopID: "A", ToStopID: "B", MinTransferTime: nil}}

	edges := buildTransferEdges(raw)

	key := models.TransferEdgeKey{U: "A", V: "B"}
	require.Contains(t, edges, key)
	assert.Equal(t, 0, edges[key].TimeSec)
}

func TestServiceIDForWeekday(t *testing.T) {
	assert.Equal(t, 1, ServiceIDForWeekday(time.Monday))
	assert.Equal(t, 1, ServiceIDForWeekday(time.Friday))
	assert.Equal(t, 2, ServiceIDForWeekday(time.Saturday))
	assert.Equal(t, 3, ServiceIDForWeekday(time.Sunday))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	artifacts, err := Build(threeStopFeed(), 1)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "artifacts")
	require.NoError(t, Save(dir, artifacts))

	loaded, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, artifacts.ServiceID, loaded.ServiceID)
	assert.Equal(t, len(artifacts.NetworkEdges), len(loaded.NetworkEdges))
	assert.Equal(t, len(artifacts.Stops), len(loaded.Stops))
}

func TestLoadMissingArtifactIsIOError(t *testing.T) {
	_, err := Load(filepath.Join(os.TempDir(), "definitely-does-not-exist-xyz"))

	assert.ErrorIs(t, err, models.ErrIOError)
}
