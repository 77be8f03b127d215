package stopindex

import (
	"testing"

	"github.com/metrovan/isochrone/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStops() map[string]*models.Stop {
	return map[string]*models.Stop{
		"A": {StopID: "A", Name: "Stop A", Lat: 49.2800, Lon: -123.1200},
		"B": {StopID: "B", Name: "Stop B", Lat: 49.2810, Lon: -123.1205}, // ~120m from A
		"C": {StopID: "C", Name: "Stop C", Lat: 49.3500, Lon: -123.2000}, // far away
	}
}

func TestQueryRadiusFindsNearbyStops(t *testing.T) {
	idx := Build(sampleStops())

	results := idx.QueryMaxWalkKm(49.2800, -123.1200, 1.0)

	require.NotEmpty(t, results)
	assert.Equal(t, "A", results[0].Stop.StopID)
	assert.InDelta(t, 0, results[0].DistM, 1e-6)

	var ids []string
	for _, r := range results {
		ids = append(ids, r.Stop.StopID)
	}
	assert.Contains(t, ids, "B")
	assert.NotContains(t, ids, "C")
}

func TestQueryRadiusEmptyWhenNothingNearby(t *testing.T) {
	idx := Build(sampleStops())

	results := idx.QueryMaxWalkKm(10.0, 10.0, 1.0)

	assert.Empty(t, results)
}

func TestQueryRadiusSortedByDistance(t *testing.T) {
	idx := Build(sampleStops())

	results := idx.QueryMaxWalkKm(49.2800, -123.1200, 50.0)

	require.Len(t, results, 3)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i-1].DistM, results[i].DistM)
	}
}
