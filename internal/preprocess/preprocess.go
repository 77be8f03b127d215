// Package preprocess is the Preprocessor (§4.4): a pure function from
// loaded GTFS tables plus a service_id to the four persisted artifacts
// (network_edges, transfer_edges, stops, shapes) the Graph Builder
// consumes. Per DESIGN NOTE "global mutable preprocessing state", this
// package holds no process-level state — Build takes everything it needs
// as arguments and returns a fresh models.Artifacts.
package preprocess

import (
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"

	"github.com/metrovan/isochrone/internal/gtfsfeed"
	"github.com/metrovan/isochrone/internal/models"
	"github.com/metrovan/isochrone/internal/shapestore"
)

// ServiceIDForWeekday maps a calendar weekday to this feed's service_id
// convention (1 weekday, 2 Saturday, 3 Sunday), carried over from the
// original interactive driver's day-of-week prompt (§13).
func ServiceIDForWeekday(wd time.Weekday) int {
	switch wd {
	case time.Saturday:
		return 2
	case time.Sunday:
		return 3
	default:
		return 1
	}
}

// Build runs the full preprocessing pipeline over an already-parsed feed
// for the given service_id, producing the four persisted artifacts.
func Build(feed *gtfsfeed.Feed, serviceID int) (*models.Artifacts, error) {
	stops := buildStops(feed.Stops)
	shapes := shapestore.FromGTFSPoints(feed.Shapes)

	routeNames, routeShapeByTrip, tripServiceOK := indexTrips(feed.Trips, feed.Routes, serviceID)

	networkEdges, err := buildNetworkEdges(feed.StopTimes, tripServiceOK, routeNames, routeShapeByTrip)
	if err != nil {
		return nil, fmt.Errorf("build network edges: %w", err)
	}

	transferEdges := buildTransferEdges(feed.Transfers)

	log.Printf("preprocess: service_id=%d stops=%d shapes=%d network_edges=%d transfer_edges=%d",
		serviceID, len(stops), len(shapes), len(networkEdges), len(transferEdges))

	return &models.Artifacts{
		ServiceID:     serviceID,
		NetworkEdges:  networkEdges,
		TransferEdges: transferEdges,
		Stops:         stops,
		Shapes:        shapes,
	}, nil
}

func buildStops(raw []models.GTFSStop) map[string]*models.Stop {
	cleaned := gtfsfeed.ValidateAndCleanStops(raw)
	out := make(map[string]*models.Stop, len(cleaned))
	for _, s := range cleaned {
		out[s.StopID] = &models.Stop{StopID: s.StopID, Name: s.StopName, Lat: s.Lat, Lon: s.Lon}
	}
	return out
}

// indexTrips returns, per trip_id: its derived route_name and shape_id,
// and whether the trip belongs to the requested service_id.
func indexTrips(trips []models.GTFSTrip, routes []models.GTFSRoute, serviceID int) (
	routeNameByTrip map[string]string,
	shapeByTrip map[string]string,
	tripServiceOK map[string]bool,
) {
	routeByID := make(map[string]models.GTFSRoute, len(routes))
	for _, r := range routes {
		routeByID[r.RouteID] = r
	}

	wantService := strconv.Itoa(serviceID)

	routeNameByTrip = make(map[string]string, len(trips))
	shapeByTrip = make(map[string]string, len(trips))
	tripServiceOK = make(map[string]bool, len(trips))

	for _, trip := range trips {
		route := routeByID[trip.RouteID]
		routeNameByTrip[trip.TripID] = models.DeriveRouteName(route.ShortName, route.LongName)
		shapeByTrip[trip.TripID] = trip.ShapeID
		tripServiceOK[trip.TripID] = trip.ServiceID == wantService
	}
	return
}

// buildNetworkEdges implements §4.4 "Network edges" steps 1-6.
func buildNetworkEdges(
	rawStopTimes []models.GTFSStopTime,
	tripServiceOK map[string]bool,
	routeNameByTrip map[string]string,
	shapeByTrip map[string]string,
) (map[models.NetworkEdgeKey]*models.NetworkEdge, error) {

	// Step 1: filter to trips whose service matches.
	filtered := make([]models.GTFSStopTime, 0, len(rawStopTimes))
	for _, st := range rawStopTimes {
		if tripServiceOK[st.TripID] {
			filtered = append(filtered, st)
		}
	}

	// Step 2: sort by (trip_id, stop_sequence) ascending.
	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].TripID != filtered[j].TripID {
			return filtered[i].TripID < filtered[j].TripID
		}
		return filtered[i].StopSequence < filtered[j].StopSequence
	})

	edges := make(map[models.NetworkEdgeKey]*models.NetworkEdge)

	// Steps 3-6: one-step shift, keep consecutive on-trip hops.
	for i := 0; i+1 < len(filtered); i++ {
		cur := filtered[i]
		next := filtered[i+1]
		if cur.TripID != next.TripID {
			continue
		}

		u, v := cur.StopID, next.StopID
		if u == v {
			// §8 invariant: no self-loops from the feed.
			continue
		}

		durSec := next.ArrivalSec - cur.ArrivalSec
		if durSec < 0 {
			log.Printf("%v: negative duration on trip %s (%s -> %s), skipping edge",
				models.ErrDataInconsistency, cur.TripID, u, v)
			continue
		}

		route := routeNameByTrip[cur.TripID]
		key := models.NetworkEdgeKey{U: u, V: v, Route: route}

		edge, ok := edges[key]
		if !ok {
			edge = &models.NetworkEdge{
				Key:     key,
				ShapeID: shapeByTrip[cur.TripID],
				DistU:   cur.ShapeDistTraveled,
				DistV:   next.ShapeDistTraveled,
			}
			edges[key] = edge
		}
		// First occurrence's shape/distance markers win (§3 invariant);
		// later observations only append trips.
		edge.Trips = append(edge.Trips, models.Trip{
			DeptSec: cur.DepartureSec,
			DurSec:  durSec,
		})
	}

	return edges, nil
}

// buildTransferEdges implements §4.4 "Transfer edges": halve the feed's
// min_transfer_time, null times become 0, duplicate keys keep the minimum.
func buildTransferEdges(raw []models.GTFSTransfer) map[models.TransferEdgeKey]*models.TransferEdge {
	out := make(map[models.TransferEdgeKey]*models.TransferEdge)

	for _, t := range raw {
		if t.FromStopID == t.ToStopID {
			continue
		}

		secs := 0
		if t.MinTransferTime != nil {
			secs = *t.MinTransferTime / 2
		}

		key := models.TransferEdgeKey{U: t.FromStopID, V: t.ToStopID}
		if existing, ok := out[key]; ok {
			if secs < existing.TimeSec {
				existing.TimeSec = secs
			}
			continue
		}
		out[key] = &models.TransferEdge{Key: key, TimeSec: secs}
	}
	return out
}
