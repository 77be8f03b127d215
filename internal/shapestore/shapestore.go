// Package shapestore is the Shape Store (§4.3): per-shape, distance-sorted
// coordinate arrays with binary-search slicing, used by the Router to turn
// a travel edge into a dense polyline.
package shapestore

import (
	"fmt"
	"sort"

	"github.com/metrovan/isochrone/internal/models"
)

// Store holds every shape's parallel (distance, coordinate) arrays.
type Store struct {
	shapes map[string]*models.Shape
}

// Build wraps an already-sorted shape map (produced by the Preprocessor;
// see internal/preprocess) as a Store.
func Build(shapes map[string]*models.Shape) *Store {
	return &Store{shapes: shapes}
}

// Slice returns the coordinates of shapeID whose cumulative distance lies
// in (du, dv], per §4.3. du and dv are in the shape's native feed units —
// never converted to metres, per §9 "Shape-distance units". Returns an
// error (wrapping models.ErrDataInconsistency) if the shape is unknown.
func (s *Store) Slice(shapeID string, du, dv float64) ([][2]float64, error) {
	shape, ok := s.shapes[shapeID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown shape %q", models.ErrDataInconsistency, shapeID)
	}

	lo := sort.Search(len(shape.Dists), func(i int) bool { return shape.Dists[i] > du })
	hi := sort.Search(len(shape.Dists), func(i int) bool { return shape.Dists[i] > dv })

	if lo >= hi {
		// Degenerate segment (du == dv, or no points recorded strictly
		// between them): fall back to the two endpoint coordinates, bracketed
		// by nearest indices, so callers still get a usable (non-empty)
		// polyline segment.
		return s.fallbackEndpoints(shape, du, dv), nil
	}

	out := make([][2]float64, hi-lo)
	copy(out, shape.Coords[lo:hi])
	return out, nil
}

func (s *Store) fallbackEndpoints(shape *models.Shape, du, dv float64) [][2]float64 {
	idxAt := func(d float64) int {
		i := sort.Search(len(shape.Dists), func(i int) bool { return shape.Dists[i] >= d })
		if i >= len(shape.Dists) {
			i = len(shape.Dists) - 1
		}
		return i
	}
	i, j := idxAt(du), idxAt(dv)
	if i == j {
		if i+1 < len(shape.Coords) {
			return [][2]float64{shape.Coords[i], shape.Coords[i+1]}
		}
		return [][2]float64{shape.Coords[i]}
	}
	if i > j {
		i, j = j, i
	}
	return append([][2]float64{}, shape.Coords[i:j+1]...)
}

// Get returns the raw shape record, for callers (e.g. isochrone rendering)
// that need the full polyline rather than a slice.
func (s *Store) Get(shapeID string) (*models.Shape, bool) {
	shape, ok := s.shapes[shapeID]
	return shape, ok
}

// FromGTFSPoints sorts raw shape points by cumulative distance and packs
// them into the Store's parallel-array representation (§4.4 "Shapes").
func FromGTFSPoints(points []models.GTFSShapePoint) map[string]*models.Shape {
	bySeq := make(map[string][]models.GTFSShapePoint)
	for _, p := range points {
		bySeq[p.ShapeID] = append(bySeq[p.ShapeID], p)
	}

	out := make(map[string]*models.Shape, len(bySeq))
	for shapeID, pts := range bySeq {
		sort.SliceStable(pts, func(i, j int) bool {
			if pts[i].DistTraveled != pts[j].DistTraveled {
				return pts[i].DistTraveled < pts[j].DistTraveled
			}
			return pts[i].Sequence < pts[j].Sequence
		})

		shape := &models.Shape{
			ShapeID: shapeID,
			Dists:   make([]float64, len(pts)),
			Coords:  make([][2]float64, len(pts)),
		}
		for i, p := range pts {
			shape.Dists[i] = p.DistTraveled
			shape.Coords[i] = [2]float64{p.Lon, p.Lat}
		}
		out[shapeID] = shape
	}
	return out
}
