package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// cellSizeM is the rasterization resolution for isochrone construction.
// No polygon boolean-ops library exists in this stack's dependency
// lineage (see DESIGN.md), so union/clip/connected-components are done on
// a shared metric grid instead of true vector geometry; 25m balances
// isochrone smoothness against grid size for a metropolitan-scale query.
const cellSizeM = 25.0

// Disk is a buffered stop: a point in BC Albers metres with a walking
// radius, produced by the Router from §4.6 Isochrone step 5. BuildIsochrone
// marks the cell containing each disk's centre as a seed, the anchor for
// the connected-components filter in step 8.
type Disk struct {
	X, Y   float64
	Radius float64
}

// BuildIsochrone implements §4.6 Isochrone steps 5-9: buffer each disk,
// union them, clip to land, keep only components touching a seed cell,
// and reproject to WGS84. landMetric may be nil (no clipping).
func BuildIsochrone(disks []Disk, landMetric orb.MultiPolygon) (orb.MultiPolygon, error) {
	if len(disks) == 0 {
		return nil, nil
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, d := range disks {
		minX = math.Min(minX, d.X-d.Radius)
		minY = math.Min(minY, d.Y-d.Radius)
		maxX = math.Max(maxX, d.X+d.Radius)
		maxY = math.Max(maxY, d.Y+d.Radius)
	}

	cols := int(math.Ceil((maxX-minX)/cellSizeM)) + 1
	rows := int(math.Ceil((maxY-minY)/cellSizeM)) + 1
	if cols <= 0 || rows <= 0 {
		return nil, nil
	}

	reached := make([][]bool, rows)
	seed := make([][]bool, rows)
	for r := range reached {
		reached[r] = make([]bool, cols)
		seed[r] = make([]bool, cols)
	}

	cellCenter := func(r, c int) (float64, float64) {
		return minX + (float64(c)+0.5)*cellSizeM, minY + (float64(r)+0.5)*cellSizeM
	}

	// Step 5+6: rasterize the union of buffered disks.
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			cx, cy := cellCenter(r, c)
			for _, d := range disks {
				dx, dy := cx-d.X, cy-d.Y
				if dx*dx+dy*dy <= d.Radius*d.Radius {
					reached[r][c] = true
					break
				}
			}
		}
	}

	// Mark seed cells: the cell actually containing each disk's stop
	// point, regardless of land clipping, so step 8's filter has anchors.
	seedCells := make(map[[2]int]bool)
	for _, d := range disks {
		c := int((d.X - minX) / cellSizeM)
		r := int((d.Y - minY) / cellSizeM)
		if r >= 0 && r < rows && c >= 0 && c < cols {
			seed[r][c] = true
			seedCells[[2]int{r, c}] = true
		}
	}

	// Step 7: clip to land.
	if landMetric != nil {
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				if !reached[r][c] {
					continue
				}
				cx, cy := cellCenter(r, c)
				if !multiPolygonContains(landMetric, cx, cy) {
					reached[r][c] = false
				}
			}
		}
	}

	// Step 8: connected components (4-connected flood fill), keep only
	// those containing a seed cell.
	visited := make([][]bool, rows)
	for r := range visited {
		visited[r] = make([]bool, cols)
	}

	var survivors [][2]int
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if !reached[r][c] || visited[r][c] {
				continue
			}
			component, hasSeed := floodFill(reached, visited, r, c, rows, cols, seedCells)
			if hasSeed {
				survivors = append(survivors, component...)
			}
		}
	}

	if len(survivors) == 0 {
		return nil, nil
	}

	// Emit surviving cells as unit-square polygons in metric space, then
	// reproject each vertex back to WGS84 (step 9).
	result := make(orb.MultiPolygon, 0, len(survivors))
	for _, rc := range survivors {
		r, c := rc[0], rc[1]
		x0 := minX + float64(c)*cellSizeM
		y0 := minY + float64(r)*cellSizeM
		x1 := x0 + cellSizeM
		y1 := y0 + cellSizeM

		ring, err := squareRingGeographic(x0, y0, x1, y1)
		if err != nil {
			continue // DataInconsistency: skip the offending cell, keep going.
		}
		result = append(result, orb.Polygon{ring})
	}

	return result, nil
}

func squareRingGeographic(x0, y0, x1, y1 float64) (orb.Ring, error) {
	corners := [][2]float64{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}
	ring := make(orb.Ring, len(corners))
	for i, c := range corners {
		lon, lat, err := ToGeographic(c[0], c[1])
		if err != nil {
			return nil, err
		}
		ring[i] = orb.Point{lon, lat}
	}
	return ring, nil
}

func floodFill(reached, visited [][]bool, startR, startC, rows, cols int, seedCells map[[2]int]bool) ([][2]int, bool) {
	stack := [][2]int{{startR, startC}}
	visited[startR][startC] = true

	var component [][2]int
	hasSeed := false

	for len(stack) > 0 {
		cell := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		r, c := cell[0], cell[1]
		component = append(component, cell)
		if seedCells[[2]int{r, c}] {
			hasSeed = true
		}

		neighbors := [][2]int{{r - 1, c}, {r + 1, c}, {r, c - 1}, {r, c + 1}}
		for _, n := range neighbors {
			nr, nc := n[0], n[1]
			if nr < 0 || nr >= rows || nc < 0 || nc >= cols {
				continue
			}
			if visited[nr][nc] || !reached[nr][nc] {
				continue
			}
			visited[nr][nc] = true
			stack = append(stack, [2]int{nr, nc})
		}
	}

	return component, hasSeed
}

// multiPolygonContains is a ray-casting point-in-polygon test over every
// ring of every polygon (outer ring included, holes excluded), in a shared
// planar (already-projected) coordinate space.
func multiPolygonContains(mp orb.MultiPolygon, x, y float64) bool {
	for _, poly := range mp {
		if polygonContains(poly, x, y) {
			return true
		}
	}
	return false
}

func polygonContains(poly orb.Polygon, x, y float64) bool {
	if len(poly) == 0 {
		return false
	}
	if !ringContains(poly[0], x, y) {
		return false
	}
	for _, hole := range poly[1:] {
		if ringContains(hole, x, y) {
			return false
		}
	}
	return true
}

// ringContains implements the standard even-odd ray-casting rule.
func ringContains(ring orb.Ring, x, y float64) bool {
	inside := false
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > y) != (yj > y) &&
			x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// ProjectMultiPolygon reprojects every vertex of mp from WGS84 to BC
// Albers metres.
func ProjectMultiPolygon(mp orb.MultiPolygon) (orb.MultiPolygon, error) {
	out := make(orb.MultiPolygon, len(mp))
	for i, poly := range mp {
		outPoly := make(orb.Polygon, len(poly))
		for j, ring := range poly {
			outRing := make(orb.Ring, len(ring))
			for k, pt := range ring {
				x, y, err := ToMetric(pt[0], pt[1])
				if err != nil {
					return nil, err
				}
				outRing[k] = orb.Point{x, y}
			}
			outPoly[j] = outRing
		}
		out[i] = outPoly
	}
	return out, nil
}

// ContainsPoint reports whether lon/lat falls inside mp (both in WGS84
// degrees), used by the origin-containment check in §13.
func ContainsPoint(mp orb.MultiPolygon, lon, lat float64) bool {
	return multiPolygonContains(mp, lon, lat)
}
