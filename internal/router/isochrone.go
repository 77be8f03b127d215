package router

import (
	"fmt"

	"github.com/metrovan/isochrone/internal/geo"
	"github.com/metrovan/isochrone/internal/graph"
	"github.com/metrovan/isochrone/internal/models"
	"github.com/metrovan/isochrone/internal/stopindex"
	"github.com/paulmach/orb"
)

// Isochrone implements §4.6 Isochrone steps 1-9. land may be nil, in which
// case step 7 (clip to land) is skipped. Origin-outside-land short-circuit
// (§13) is the caller's responsibility (it needs the unprojected land
// polygon, which this function also accepts for that reason).
func Isochrone(g *graph.Graph, idx *stopindex.Index, lat, lon float64, opts SnapOptions, land orb.MultiPolygon) (orb.MultiPolygon, error) {
	g.Lock()
	defer g.Unlock()
	defer g.RemoveNode(userStart)

	added := snapOrigin(g, idx, userStart, lat, lon, opts)
	if added == 0 {
		return nil, errOutOfService(lat, lon)
	}

	result := g.Dijkstra(userStart, opts.BudgetMins)

	// Step 3: collapse route-node variants onto their base stop, keeping
	// the minimum time reached (§4.5 step 2e dedup across boarded variants).
	minByStop := make(map[string]float64)
	for node, t := range result.Dist {
		if node == userStart {
			continue
		}
		base := node.Base()
		if existing, ok := minByStop[base.StopID]; !ok || t < existing {
			minByStop[base.StopID] = t
		}
	}

	if len(minByStop) == 0 {
		return nil, nil
	}

	// Steps 4-5: remaining walk budget per stop, buffered disk in metres.
	var disks []geo.Disk
	for stopID, t := range minByStop {
		stop, ok := idx.Get(stopID)
		if !ok {
			continue
		}
		remaining := opts.BudgetMins - t
		radiusM := remaining * opts.WalkSpeedMPS * 60
		maxRadiusM := opts.MaxWalkKm * 1000
		if radiusM > maxRadiusM {
			radiusM = maxRadiusM
		}
		if radiusM <= 10 {
			continue
		}

		x, y, err := geo.ToMetric(stop.Lon, stop.Lat)
		if err != nil {
			continue // DataInconsistency: skip the offending stop, keep going.
		}
		disks = append(disks, geo.Disk{X: x, Y: y, Radius: radiusM})
	}

	if len(disks) == 0 {
		return nil, nil
	}

	var landMetric orb.MultiPolygon
	if land != nil {
		var err error
		landMetric, err = geo.ProjectMultiPolygon(land)
		if err != nil {
			return nil, fmt.Errorf("%w: project land polygon: %v", models.ErrDataInconsistency, err)
		}
	}

	// Steps 6-9: union, clip, keep seed-containing components, reproject.
	mp, err := geo.BuildIsochrone(disks, landMetric)
	if err != nil {
		return nil, fmt.Errorf("build isochrone geometry: %w", err)
	}
	return mp, nil
}
