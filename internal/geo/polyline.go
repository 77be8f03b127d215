package geo

import (
	polyline "github.com/twpayne/go-polyline"
)

// EncodePolyline implements §4.6 Route step 4: encode a lon/lat coordinate
// sequence as a Google-format polyline string at the standard precision-5
// scale.
func EncodePolyline(coords [][2]float64) string {
	points := make([][]float64, len(coords))
	for i, c := range coords {
		// go-polyline expects [lat, lon] pairs.
		points[i] = []float64{c[1], c[0]}
	}
	return string(polyline.EncodeCoords(nil, points))
}
