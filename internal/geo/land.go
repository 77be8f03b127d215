package geo

import (
	"fmt"
	"os"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
)

// LoadLandPolygon reads a land-boundary GeoJSON file (a Feature or
// FeatureCollection whose geometry is a Polygon or MultiPolygon, clipping
// the isochrone to the coastline per §4.7) and returns it as WGS84 degrees.
func LoadLandPolygon(path string) (orb.MultiPolygon, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read land polygon %q: %w", path, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		feature, ferr := geojson.UnmarshalFeature(raw)
		if ferr != nil {
			return nil, fmt.Errorf("parse land polygon %q: %w", path, err)
		}
		fc = geojson.NewFeatureCollection()
		fc.AddFeature(feature)
	}

	var mp orb.MultiPolygon
	for _, feature := range fc.Features {
		switch feature.Geometry.Type {
		case "Polygon":
			mp = append(mp, geojsonPolygonToOrb(feature.Geometry.Polygon))
		case "MultiPolygon":
			for _, poly := range feature.Geometry.MultiPolygon {
				mp = append(mp, geojsonPolygonToOrb(poly))
			}
		}
	}
	if len(mp) == 0 {
		return nil, fmt.Errorf("land polygon %q: no Polygon/MultiPolygon geometry found", path)
	}
	return mp, nil
}

func geojsonPolygonToOrb(rings [][][]float64) orb.Polygon {
	poly := make(orb.Polygon, len(rings))
	for i, ring := range rings {
		r := make(orb.Ring, len(ring))
		for j, pt := range ring {
			r[j] = orb.Point{pt[0], pt[1]}
		}
		poly[i] = r
	}
	return poly
}
