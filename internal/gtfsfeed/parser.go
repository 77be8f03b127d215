// Package gtfsfeed is the Feed Loader (§4.1): it parses the GTFS tables
// trips, stop_times, stops, routes, transfers and shapes into typed
// records, ready for the Preprocessor. Stop and shape identifiers stay
// opaque strings throughout; times are parsed eagerly into
// seconds-since-midnight.
package gtfsfeed

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/metrovan/isochrone/internal/models"
)

// Feed is a fully parsed GTFS dataset.
type Feed struct {
	Agencies  []models.GTFSAgency
	Stops     []models.GTFSStop
	Routes    []models.GTFSRoute
	Trips     []models.GTFSTrip
	StopTimes []models.GTFSStopTime
	Transfers []models.GTFSTransfer
	Shapes    []models.GTFSShapePoint
}

// Load reads a GTFS feed from either a directory of .txt files or a .zip
// archive of the same, dispatching on the path's extension.
func Load(path string) (*Feed, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat gtfs path: %w", err)
	}
	if !info.IsDir() && strings.EqualFold(filepath.Ext(path), ".zip") {
		return loadZip(path)
	}
	if info.IsDir() {
		return loadDir(path)
	}
	return nil, fmt.Errorf("%s is neither a directory nor a .zip archive", path)
}

func loadZip(zipPath string) (*Feed, error) {
	tempDir, err := os.MkdirTemp("", "gtfs-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	if err := extractZip(zipPath, tempDir); err != nil {
		return nil, fmt.Errorf("extract zip: %w", err)
	}
	return loadDir(tempDir)
}

func loadDir(dir string) (*Feed, error) {
	feed := &Feed{}

	if agencies, err := parseAgencies(filepath.Join(dir, "agency.txt")); err == nil {
		feed.Agencies = agencies
		log.Printf("parsed %d agencies", len(agencies))
	} else {
		log.Printf("warning: no agency.txt (%v)", err)
	}

	stops, err := parseStops(filepath.Join(dir, "stops.txt"))
	if err != nil {
		return nil, fmt.Errorf("parse stops (required): %w", err)
	}
	feed.Stops = stops
	log.Printf("parsed %d stops", len(stops))

	routes, err := parseRoutes(filepath.Join(dir, "routes.txt"))
	if err != nil {
		return nil, fmt.Errorf("parse routes (required): %w", err)
	}
	feed.Routes = routes
	log.Printf("parsed %d routes", len(routes))

	trips, err := parseTrips(filepath.Join(dir, "trips.txt"))
	if err != nil {
		return nil, fmt.Errorf("parse trips (required): %w", err)
	}
	feed.Trips = trips
	log.Printf("parsed %d trips", len(trips))

	stopTimes, err := parseStopTimes(filepath.Join(dir, "stop_times.txt"))
	if err != nil {
		return nil, fmt.Errorf("parse stop_times (required): %w", err)
	}
	feed.StopTimes = stopTimes
	log.Printf("parsed %d stop_times", len(stopTimes))

	if transfers, err := parseTransfers(filepath.Join(dir, "transfers.txt")); err == nil {
		feed.Transfers = transfers
		log.Printf("parsed %d transfers", len(transfers))
	} else {
		log.Printf("warning: no transfers.txt (%v)", err)
	}

	if shapes, err := parseShapes(filepath.Join(dir, "shapes.txt")); err == nil {
		feed.Shapes = shapes
		log.Printf("parsed %d shape points", len(shapes))
	} else {
		log.Printf("warning: no shapes.txt (%v)", err)
	}

	return feed, nil
}

func parseAgencies(path string) ([]models.GTFSAgency, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r, header, err := newTableReader(file)
	if err != nil {
		return nil, err
	}
	var out []models.GTFSAgency
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("warning: skipping malformed agency row: %v", err)
			continue
		}
		out = append(out, models.GTFSAgency{
			AgencyID:   getField(record, header, "agency_id"),
			AgencyName: getField(record, header, "agency_name"),
			AgencyURL:  getField(record, header, "agency_url"),
			Timezone:   getField(record, header, "agency_timezone"),
		})
	}
	return out, nil
}

func parseStops(path string) ([]models.GTFSStop, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r, header, err := newTableReader(file)
	if err != nil {
		return nil, err
	}
	var out []models.GTFSStop
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("warning: skipping malformed stop row: %v", err)
			continue
		}

		stopID := getField(record, header, "stop_id")
		latStr := getField(record, header, "stop_lat")
		lonStr := getField(record, header, "stop_lon")
		if stopID == "" || latStr == "" || lonStr == "" {
			log.Printf("warning: skipping stop with missing required fields: %q", stopID)
			continue
		}
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			log.Printf("warning: invalid latitude for stop %s: %v", stopID, err)
			continue
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			log.Printf("warning: invalid longitude for stop %s: %v", stopID, err)
			continue
		}

		out = append(out, models.GTFSStop{
			StopID:   stopID,
			StopName: getField(record, header, "stop_name"),
			Lat:      lat,
			Lon:      lon,
		})
	}
	return out, nil
}

func parseRoutes(path string) ([]models.GTFSRoute, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r, header, err := newTableReader(file)
	if err != nil {
		return nil, err
	}
	var out []models.GTFSRoute
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("warning: skipping malformed route row: %v", err)
			continue
		}
		routeID := getField(record, header, "route_id")
		if routeID == "" {
			continue
		}
		routeType, _ := strconv.Atoi(getField(record, header, "route_type"))
		out = append(out, models.GTFSRoute{
			RouteID:    routeID,
			AgencyID:   getField(record, header, "agency_id"),
			ShortName:  getField(record, header, "route_short_name"),
			LongName:   getField(record, header, "route_long_name"),
			RouteType:  routeType,
			RouteColor: getField(record, header, "route_color"),
		})
	}
	return out, nil
}

func parseTrips(path string) ([]models.GTFSTrip, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r, header, err := newTableReader(file)
	if err != nil {
		return nil, err
	}
	var out []models.GTFSTrip
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("warning: skipping malformed trip row: %v", err)
			continue
		}
		tripID := getField(record, header, "trip_id")
		routeID := getField(record, header, "route_id")
		if tripID == "" || routeID == "" {
			continue
		}
		direction, _ := strconv.Atoi(getField(record, header, "direction_id"))
		out = append(out, models.GTFSTrip{
			RouteID:   routeID,
			ServiceID: getField(record, header, "service_id"),
			TripID:    tripID,
			ShapeID:   getField(record, header, "shape_id"),
			Headsign:  getField(record, header, "trip_headsign"),
			Direction: direction,
		})
	}
	return out, nil
}

func parseStopTimes(path string) ([]models.GTFSStopTime, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r, header, err := newTableReader(file)
	if err != nil {
		return nil, err
	}
	var out []models.GTFSStopTime
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("warning: skipping malformed stop_time row: %v", err)
			continue
		}

		tripID := getField(record, header, "trip_id")
		stopID := getField(record, header, "stop_id")
		seqStr := getField(record, header, "stop_sequence")
		if tripID == "" || stopID == "" || seqStr == "" {
			continue
		}
		sequence, err := strconv.Atoi(seqStr)
		if err != nil {
			log.Printf("warning: invalid stop_sequence for trip %s: %v", tripID, err)
			continue
		}

		arrivalSec, err := ParseTimeToSeconds(getField(record, header, "arrival_time"))
		if err != nil {
			log.Printf("warning: invalid arrival_time for trip %s seq %d: %v", tripID, sequence, err)
			continue
		}
		departureSec, err := ParseTimeToSeconds(getField(record, header, "departure_time"))
		if err != nil {
			log.Printf("warning: invalid departure_time for trip %s seq %d: %v", tripID, sequence, err)
			continue
		}

		distStr := getField(record, header, "shape_dist_traveled")
		dist, hasDist := 0.0, false
		if distStr != "" {
			if d, err := strconv.ParseFloat(distStr, 64); err == nil {
				dist, hasDist = d, true
			}
		}

		out = append(out, models.GTFSStopTime{
			TripID:            tripID,
			ArrivalSec:        arrivalSec,
			DepartureSec:      departureSec,
			StopID:            stopID,
			StopSequence:      sequence,
			ShapeDistTraveled: dist,
			HasShapeDist:      hasDist,
		})
	}
	return out, nil
}

func parseTransfers(path string) ([]models.GTFSTransfer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r, header, err := newTableReader(file)
	if err != nil {
		return nil, err
	}
	var out []models.GTFSTransfer
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("warning: skipping malformed transfer row: %v", err)
			continue
		}
		from := getField(record, header, "from_stop_id")
		to := getField(record, header, "to_stop_id")
		if from == "" || to == "" {
			continue
		}
		transferType, _ := strconv.Atoi(getField(record, header, "transfer_type"))

		var minTime *int
		if s := getField(record, header, "min_transfer_time"); s != "" {
			if v, err := strconv.Atoi(s); err == nil {
				minTime = &v
			}
		}

		out = append(out, models.GTFSTransfer{
			FromStopID:      from,
			ToStopID:        to,
			TransferType:    transferType,
			MinTransferTime: minTime,
		})
	}
	return out, nil
}

func parseShapes(path string) ([]models.GTFSShapePoint, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r, header, err := newTableReader(file)
	if err != nil {
		return nil, err
	}
	var out []models.GTFSShapePoint
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("warning: skipping malformed shape row: %v", err)
			continue
		}
		shapeID := getField(record, header, "shape_id")
		latStr := getField(record, header, "shape_pt_lat")
		lonStr := getField(record, header, "shape_pt_lon")
		seqStr := getField(record, header, "shape_pt_sequence")
		if shapeID == "" || latStr == "" || lonStr == "" {
			continue
		}
		lat, err1 := strconv.ParseFloat(latStr, 64)
		lon, err2 := strconv.ParseFloat(lonStr, 64)
		if err1 != nil || err2 != nil {
			log.Printf("warning: invalid coordinates for shape %s, skipping point", shapeID)
			continue
		}
		seq, _ := strconv.Atoi(seqStr)
		dist, _ := strconv.ParseFloat(getField(record, header, "shape_dist_traveled"), 64)

		out = append(out, models.GTFSShapePoint{
			ShapeID:      shapeID,
			Lat:          lat,
			Lon:          lon,
			Sequence:     seq,
			DistTraveled: dist,
		})
	}
	return out, nil
}

func newTableReader(reader io.Reader) (*csv.Reader, map[string]int, error) {
	r := csv.NewReader(reader)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	return r, makeColumnMap(header), nil
}

func makeColumnMap(header []string) map[string]int {
	colMap := make(map[string]int, len(header))
	for i, col := range header {
		colMap[strings.TrimSpace(col)] = i
	}
	return colMap
}

func getField(record []string, colMap map[string]int, field string) string {
	if idx, ok := colMap[field]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}

func extractZip(zipPath, destDir string) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return err
		}

		destPath := filepath.Join(destDir, filepath.Base(file.Name))
		outFile, err := os.Create(destPath)
		if err != nil {
			rc.Close()
			return err
		}

		_, err = io.Copy(outFile, rc)
		rc.Close()
		outFile.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
