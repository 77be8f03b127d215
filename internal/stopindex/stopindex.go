// Package stopindex is the Stop Index (§4.2): a spatial index over GTFS
// stops supporting exact-radius nearest-neighbour queries. A tidwall/rtree
// bounding-box prefilter narrows the candidate set; haversine distance is
// then computed exactly over the survivors, so the index never trades
// correctness for speed — the prefilter can only over-select, never
// under-select, candidates.
package stopindex

import (
	"math"
	"sort"

	"github.com/metrovan/isochrone/internal/models"
	"github.com/tidwall/rtree"
)

const earthRadiusM = 6371000.0
const earthRadiusKm = 6371.0

// Result is one candidate returned by a radius query: the stop and its
// exact great-circle distance from the query point, in metres.
type Result struct {
	Stop     *models.Stop
	DistM    float64
	DistRad  float64
}

// Index is an immutable-after-build spatial index over a stop set.
type Index struct {
	tree  rtree.RTreeG[*models.Stop]
	stops map[string]*models.Stop
}

// Build constructs a Stop Index over the given stops. The index is
// immutable thereafter and may be shared read-only across concurrent
// queries, per §5 "Shared resources".
func Build(stops map[string]*models.Stop) *Index {
	idx := &Index{stops: stops}
	for _, s := range stops {
		point := [2]float64{s.Lon, s.Lat}
		idx.tree.Insert(point, point, s)
	}
	return idx
}

// Get returns a stop by ID.
func (idx *Index) Get(stopID string) (*models.Stop, bool) {
	s, ok := idx.stops[stopID]
	return s, ok
}

// QueryRadius returns every stop within great-circle radius r (radians) of
// (lat, lon), each with its exact haversine distance. Results are sorted by
// ascending distance.
func (idx *Index) QueryRadius(lat, lon, radiusRad float64) []Result {
	radiusM := radiusRad * earthRadiusM
	// A degree-box prefilter: generous enough that it can only
	// over-include candidates, never miss one within radiusM. A degree of
	// longitude is at most a degree of latitude in metres, shrinking by
	// cos(lat), so the longitude pad is widened by 1/cos(lat).
	degPad := (radiusM / 111000.0) * 1.5
	lonPad := degPad / math.Max(math.Cos(lat*math.Pi/180), 1e-6)

	min := [2]float64{lon - lonPad, lat - degPad}
	max := [2]float64{lon + lonPad, lat + degPad}

	var results []Result
	idx.tree.Search(min, max, func(_, _ [2]float64, stop *models.Stop) bool {
		d := haversineDistanceM(lat, lon, stop.Lat, stop.Lon)
		if d <= radiusM {
			results = append(results, Result{Stop: stop, DistM: d, DistRad: d / earthRadiusM})
		}
		return true
	})

	sort.Slice(results, func(i, j int) bool { return results[i].DistM < results[j].DistM })
	return results
}

// QueryMaxWalkKm is the §4.2 required operation: all stops within
// max_walk_km / 6371 radians of (lat, lon).
func (idx *Index) QueryMaxWalkKm(lat, lon, maxWalkKm float64) []Result {
	return idx.QueryRadius(lat, lon, maxWalkKm/earthRadiusKm)
}

func haversineDistanceM(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}
