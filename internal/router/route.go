package router

import (
	"fmt"

	"github.com/metrovan/isochrone/internal/geo"
	"github.com/metrovan/isochrone/internal/graph"
	"github.com/metrovan/isochrone/internal/models"
	"github.com/metrovan/isochrone/internal/shapestore"
	"github.com/metrovan/isochrone/internal/stopindex"
)

// Route implements §4.6 Route steps 1-5.
func Route(g *graph.Graph, idx *stopindex.Index, shapes *shapestore.Store,
	fromLat, fromLon, toLat, toLon float64, opts SnapOptions) (*models.Path, error) {

	g.Lock()
	defer g.Unlock()
	defer g.RemoveNode(userStart)
	defer g.RemoveNode(userEnd)

	if added := snapOrigin(g, idx, userStart, fromLat, fromLon, opts); added == 0 {
		return nil, errOutOfService(fromLat, fromLon)
	}
	if added := snapDestination(g, idx, userEnd, toLat, toLon, opts); added == 0 {
		return nil, errOutOfService(toLat, toLon)
	}

	result := g.Dijkstra(userStart, 0)
	nodes, edges, ok := result.PathTo(userStart, userEnd)
	if !ok {
		return nil, fmt.Errorf("%w: no path between origin and destination", models.ErrUnreachable)
	}
	totalMinutes := result.Dist[userEnd]

	steps := buildSteps(nodes, edges, idx)
	coords, err := buildCoordinates(nodes, edges, idx, shapes, fromLat, fromLon, toLat, toLon)
	if err != nil {
		return nil, err
	}

	return &models.Path{
		Steps:        steps,
		Coordinates:  coords,
		Polyline:     geo.EncodePolyline(coords),
		TotalMinutes: totalMinutes,
	}, nil
}

// buildSteps implements §4.6 Route step 3: classify each hop by its edge
// type and emit a textual instruction, consolidating consecutive travel
// edges on the same route the way the teacher's astar.go buildSteps
// consolidates consecutive ride edges.
func buildSteps(nodes []models.Node, edges []models.Edge, idx *stopindex.Index) []models.Step {
	name := func(n models.Node) string {
		if stop, ok := idx.Get(n.StopID); ok {
			return stop.Name
		}
		return n.StopID
	}

	var steps []models.Step
	var ride *models.Step

	flushRide := func() {
		if ride != nil {
			steps = append(steps, *ride)
			ride = nil
		}
	}

	for i, edge := range edges {
		from, to := nodes[i], nodes[i+1]

		switch edge.Type {
		case models.EdgeBoard:
			flushRide()
			steps = append(steps, models.Step{
				Type:        edge.Type,
				Instruction: fmt.Sprintf("Wait for %s (%.1f min avg wait)", edge.RouteID, edge.Weight),
				FromStop:    from.StopID, ToStop: to.StopID,
				FromStopName: name(from), ToStopName: name(to),
				Route: edge.RouteID, DurationMin: edge.Weight,
			})

		case models.EdgeTravel:
			if ride != nil && ride.Route == edge.RouteID {
				ride.ToStop = to.StopID
				ride.ToStopName = name(to)
				ride.DurationMin += edge.Weight
				ride.Stops = append(ride.Stops, models.StopInfo{ID: to.StopID, Name: name(to)})
				continue
			}
			flushRide()
			ride = &models.Step{
				Type:        edge.Type,
				Instruction: fmt.Sprintf("Ride to %s", name(to)),
				FromStop:    from.StopID, ToStop: to.StopID,
				FromStopName: name(from), ToStopName: name(to),
				Route: edge.RouteID, DurationMin: edge.Weight,
				Stops: []models.StopInfo{{ID: from.StopID, Name: name(from)}, {ID: to.StopID, Name: name(to)}},
			}

		case models.EdgeDeboard:
			flushRide()
			steps = append(steps, models.Step{
				Type:        edge.Type,
				Instruction: "Get off vehicle",
				FromStop:    from.StopID, ToStop: to.StopID,
				FromStopName: name(from), ToStopName: name(to),
			})

		case models.EdgeWalk:
			flushRide()
			instruction := fmt.Sprintf("Walk to %s", name(to))
			if to == userEnd {
				instruction = "Walk to final destination"
			}
			steps = append(steps, models.Step{
				Type:        edge.Type,
				Instruction: instruction,
				FromStop:    from.StopID, ToStop: to.StopID,
				FromStopName: name(from), ToStopName: name(to),
				DurationMin: edge.Weight,
			})
		}
	}
	flushRide()

	return steps
}

// buildCoordinates implements §4.6 Route step 4.
func buildCoordinates(nodes []models.Node, edges []models.Edge, idx *stopindex.Index, shapes *shapestore.Store,
	fromLat, fromLon, toLat, toLon float64) ([][2]float64, error) {
	coords := [][2]float64{{fromLon, fromLat}}

	for i, edge := range edges {
		if edge.Type == models.EdgeTravel && edge.ShapeID != "" {
			slice, err := shapes.Slice(edge.ShapeID, edge.DistU, edge.DistV)
			if err != nil {
				continue // DataInconsistency: fall back to endpoint below.
			}
			coords = append(coords, slice...)
			continue
		}

		downstream := nodes[i+1]
		if downstream == userEnd {
			continue
		}
		if stop, ok := idx.Get(downstream.StopID); ok {
			coords = append(coords, [2]float64{stop.Lon, stop.Lat})
		}
	}

	coords = append(coords, [2]float64{toLon, toLat})
	return coords, nil
}
