// Package router is the Router (§4.6): snapping arbitrary query points onto
// the time-windowed graph via virtual nodes, and the Isochrone/Route
// operations built on top of Graph.Dijkstra.
package router

import (
	"fmt"

	"github.com/metrovan/isochrone/internal/graph"
	"github.com/metrovan/isochrone/internal/models"
	"github.com/metrovan/isochrone/internal/stopindex"
)

const earthRadiusM = 6_371_000.0

// userStart and userEnd are the virtual nodes the Snap procedure attaches
// for the duration of one query (§9 "query-time graph mutation").
var (
	userStart = models.Node{StopID: "USER_START"}
	userEnd   = models.Node{StopID: "USER_END"}
)

// SnapOptions are the walking parameters shared by Isochrone and Route
// (§6 query API table).
type SnapOptions struct {
	WalkSpeedMPS float64
	MaxWalkKm    float64
	BudgetMins   float64
}

// DefaultSnapOptions mirrors the §6 documented defaults.
func DefaultSnapOptions(budgetMins float64) SnapOptions {
	return SnapOptions{WalkSpeedMPS: 1.2, MaxWalkKm: 1.0, BudgetMins: budgetMins}
}

// snapOrigin implements the Snap procedure (§4.6) inbound: it adds a walk
// edge from the virtual node to every candidate stop's street node within
// max_walk_km and whose walk time is under budget. Returns the count of
// edges added so callers can detect OutOfService (zero candidates).
func snapOrigin(g *graph.Graph, idx *stopindex.Index, virtual models.Node, lat, lon float64, opts SnapOptions) int {
	maxWalkRad := opts.MaxWalkKm * 1000 / earthRadiusM
	candidates := idx.QueryRadius(lat, lon, maxWalkRad)

	added := 0
	for _, c := range candidates {
		walkMin := (c.DistM / opts.WalkSpeedMPS) / 60.0
		if walkMin >= opts.BudgetMins {
			continue
		}
		g.AddVirtualEdge(virtual, models.Edge{
			To:     graph.StreetNode(c.Stop.StopID),
			Type:   models.EdgeWalk,
			Weight: walkMin,
		})
		added++
	}
	return added
}

// snapDestination is the symmetric outbound case: edges point inward from
// each candidate stop's street node to the virtual destination node.
func snapDestination(g *graph.Graph, idx *stopindex.Index, virtual models.Node, lat, lon float64, opts SnapOptions) int {
	maxWalkRad := opts.MaxWalkKm * 1000 / earthRadiusM
	candidates := idx.QueryRadius(lat, lon, maxWalkRad)

	added := 0
	for _, c := range candidates {
		walkMin := (c.DistM / opts.WalkSpeedMPS) / 60.0
		if walkMin >= opts.BudgetMins {
			continue
		}
		g.AddVirtualEdge(graph.StreetNode(c.Stop.StopID), models.Edge{
			To:     virtual,
			Type:   models.EdgeWalk,
			Weight: walkMin,
		})
		added++
	}
	return added
}

func errOutOfService(lat, lon float64) error {
	return fmt.Errorf("%w: no stops within max_walk_km of (%.6f, %.6f)", models.ErrOutOfService, lat, lon)
}
