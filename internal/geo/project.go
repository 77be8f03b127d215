// Package geo is Geo Ops (§4.7): CRS projection between WGS84 (EPSG:4326)
// and BC Albers (EPSG:3005), metric-radius buffering, union, land-polygon
// overlay/clip, connected-components-containing-seed filtering, and route
// polyline encoding.
package geo

import (
	"fmt"
	"sync"

	proj "github.com/pebbe/go-proj-4"
)

// wgs84Def and bcAlbersDef are proj4 definition strings for EPSG:4326 and
// EPSG:3005, the same "+init=epsg:N" style this stack's shapefile-export
// sibling tool uses for reprojection.
const (
	wgs84Def    = "+init=epsg:4326"
	bcAlbersDef = "+init=epsg:3005"
)

var (
	projOnce  sync.Once
	wgs84Proj *proj.Proj
	bcProj    *proj.Proj
	projErr   error
)

func initProjections() {
	wgs84Proj, projErr = proj.NewProj(wgs84Def)
	if projErr != nil {
		return
	}
	bcProj, projErr = proj.NewProj(bcAlbersDef)
}

// ToMetric projects a WGS84 (lon, lat) degree pair to BC Albers (x, y)
// metres.
func ToMetric(lon, lat float64) (x, y float64, err error) {
	projOnce.Do(initProjections)
	if projErr != nil {
		return 0, 0, fmt.Errorf("init projections: %w", projErr)
	}
	x, y, err = proj.Transform2(wgs84Proj, bcProj, proj.DegToRad(lon), proj.DegToRad(lat))
	if err != nil {
		return 0, 0, fmt.Errorf("project to metric: %w", err)
	}
	return x, y, nil
}

// ToGeographic projects a BC Albers (x, y) metre pair back to WGS84
// (lon, lat) degrees.
func ToGeographic(x, y float64) (lon, lat float64, err error) {
	projOnce.Do(initProjections)
	if projErr != nil {
		return 0, 0, fmt.Errorf("init projections: %w", projErr)
	}
	rlon, rlat, err := proj.Transform2(bcProj, wgs84Proj, x, y)
	if err != nil {
		return 0, 0, fmt.Errorf("project to geographic: %w", err)
	}
	return proj.RadToDeg(rlon), proj.RadToDeg(rlat), nil
}
