package gtfsfeed

import (
	"log"
	"strings"

	"github.com/metrovan/isochrone/internal/models"
)

// InferMode determines the transit mode from a GTFS route. Keyword match
// against short/long name takes priority over the route_type mapping
// because GTFS feeds in this region routinely mislabel route_type for
// rapid-transit lines.
func InferMode(route models.GTFSRoute) models.TransitMode {
	name := strings.ToUpper(route.ShortName + " " + route.LongName)

	switch {
	case strings.Contains(name, "BRT") || strings.Contains(name, "RAPID"):
		return models.ModeBRT
	case strings.Contains(name, "TER") || strings.Contains(name, "TRAIN") || strings.Contains(name, "RAIL"):
		return models.ModeTER
	case strings.Contains(name, "FERRY") || strings.Contains(name, "BOAT"):
		return models.ModeFerry
	case strings.Contains(name, "TRAM"):
		return models.ModeTram
	}

	// https://developers.google.com/transit/gtfs/reference#routestxt
	switch route.RouteType {
	case 0:
		return models.ModeTram
	case 1:
		return models.ModeBRT
	case 2:
		return models.ModeTER
	case 3:
		return models.ModeBus
	case 4:
		return models.ModeFerry
	case 5, 6, 7:
		return models.ModeTram
	}

	return models.ModeBus
}

// ValidateAndCleanStops drops stops with out-of-range or null-island
// coordinates. DataInconsistency per §7: logged, the offending stop is
// skipped, loading continues.
func ValidateAndCleanStops(stops []models.GTFSStop) []models.GTFSStop {
	cleaned := make([]models.GTFSStop, 0, len(stops))
	for _, stop := range stops {
		if stop.Lat < -90 || stop.Lat > 90 {
			log.Printf("warning: invalid latitude for stop %s: %f", stop.StopID, stop.Lat)
			continue
		}
		if stop.Lon < -180 || stop.Lon > 180 {
			log.Printf("warning: invalid longitude for stop %s: %f", stop.StopID, stop.Lon)
			continue
		}
		if stop.Lat == 0 && stop.Lon == 0 {
			log.Printf("warning: stop %s has null island coordinates, skipping", stop.StopID)
			continue
		}
		cleaned = append(cleaned, stop)
	}
	if len(cleaned) < len(stops) {
		log.Printf("cleaned stops: removed %d invalid stops", len(stops)-len(cleaned))
	}
	return cleaned
}
