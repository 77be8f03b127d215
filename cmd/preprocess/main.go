// Command preprocess runs the Feed Loader and Preprocessor (§4.1, §4.4)
// over a GTFS feed and persists the resulting artifacts, the way the
// teacher's cmd/importer drove a GTFS import with an audited run record.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/metrovan/isochrone/internal/config"
	"github.com/metrovan/isochrone/internal/db"
	"github.com/metrovan/isochrone/internal/gtfsfeed"
	"github.com/metrovan/isochrone/internal/preprocess"
)

func main() {
	gtfsPath := flag.String("gtfs", "", "path to GTFS feed (zip or directory)")
	serviceID := flag.Int("service-id", 0, "service_id to filter trips by (0 = derive from today's weekday)")
	artifactDir := flag.String("out", "", "output directory for persisted artifacts")
	flag.Parse()

	cfg := config.Load()
	if *gtfsPath == "" {
		*gtfsPath = cfg.GTFSFeedPath
	}
	if *artifactDir == "" {
		*artifactDir = cfg.ArtifactDir
	}
	sid := *serviceID
	if sid == 0 {
		sid = preprocess.ServiceIDForWeekday(time.Now().Weekday())
	}

	if _, err := os.Stat(*gtfsPath); os.IsNotExist(err) {
		log.Fatalf("GTFS feed not found: %s", *gtfsPath)
	}

	log.Printf("Starting preprocessing run: feed=%s service_id=%d", *gtfsPath, sid)

	ctx := context.Background()
	db.Init(cfg)

	var runID int64
	if id, err := db.StartRun(ctx, sid, *gtfsPath); err != nil {
		log.Printf("⚠ could not record preprocessing_run (continuing without audit): %v", err)
	} else {
		runID = id
	}

	if err := run(ctx, *gtfsPath, sid, *artifactDir, runID); err != nil {
		if runID != 0 {
			_ = db.FailRun(ctx, runID, err)
		}
		log.Fatalf("preprocessing failed: %v", err)
	}

	log.Println("✓ Preprocessing completed successfully")
}

func run(ctx context.Context, gtfsPath string, serviceID int, artifactDir string, runID int64) error {
	log.Println("Step 1/3: Loading GTFS feed...")
	feed, err := gtfsfeed.Load(gtfsPath)
	if err != nil {
		return fmt.Errorf("load feed: %w", err)
	}

	log.Println("Step 2/3: Building artifacts...")
	artifacts, err := preprocess.Build(feed, serviceID)
	if err != nil {
		return fmt.Errorf("build artifacts: %w", err)
	}

	log.Println("Step 3/3: Persisting artifacts...")
	if err := preprocess.Save(artifactDir, artifacts); err != nil {
		return fmt.Errorf("save artifacts: %w", err)
	}

	if runID != 0 {
		if err := db.CompleteRun(ctx, runID, len(artifacts.Stops), len(artifacts.NetworkEdges), len(artifacts.Shapes)); err != nil {
			log.Printf("⚠ could not mark preprocessing_run completed: %v", err)
		}
	}

	log.Printf("stops=%d network_edges=%d transfer_edges=%d shapes=%d",
		len(artifacts.Stops), len(artifacts.NetworkEdges), len(artifacts.TransferEdges), len(artifacts.Shapes))
	return nil
}
