// Package engine holds the process-wide singleton handle described in §5
// "Shared resources": the active service day's graph, stop index, and
// shape store, built from persisted artifacts by Load (at startup and on
// each graph rebuild) and reused across every query, the way the teacher's
// internal/graph.GetGraph()
// singleton held the in-memory routing graph.
package engine

import (
	"fmt"
	"sync"

	"github.com/metrovan/isochrone/internal/config"
	"github.com/metrovan/isochrone/internal/geo"
	"github.com/metrovan/isochrone/internal/graph"
	"github.com/metrovan/isochrone/internal/metrics"
	"github.com/metrovan/isochrone/internal/models"
	"github.com/metrovan/isochrone/internal/preprocess"
	"github.com/metrovan/isochrone/internal/shapestore"
	"github.com/metrovan/isochrone/internal/stopindex"
	"github.com/paulmach/orb"
)

// Engine is the live, queryable state built from one preprocessing run.
type Engine struct {
	Graph      *graph.Graph
	StopIndex  *stopindex.Index
	ShapeStore *shapestore.Store
	Land       orb.MultiPolygon // nil if no land polygon configured
}

var (
	current   *Engine
	currentMu sync.RWMutex
)

// Load builds a fresh Engine from the artifact directory and installs it as
// the active singleton. Safe to call again later (e.g. the /v1/graph
// endpoint) to hot-swap the active graph under a new departure window.
func Load(c *config.Config, timeStr string) (*Engine, error) {
	return LoadWithOptions(c, graph.BuildOptions{
		TimeStr:           timeStr,
		WindowMins:        c.DefaultWindowMins,
		FrequencyModifier: 1.0,
		SpeedFactor:       1.0,
	})
}

// LoadWithOptions is Load with full control over the §6 build_graph
// parameters (time_str, window_mins, frequency_modifier, speed_factor).
func LoadWithOptions(c *config.Config, opts graph.BuildOptions) (*Engine, error) {
	artifacts, err := preprocess.Load(c.ArtifactDir)
	if err != nil {
		return nil, fmt.Errorf("%w: load artifacts: %v", models.ErrIOError, err)
	}

	g, err := graph.Build(artifacts, opts)
	if err != nil {
		return nil, err
	}
	metrics.GraphBuilds.Inc()
	metrics.GraphNodes.Set(float64(g.NodeCount()))
	metrics.GraphEdges.Set(float64(g.EdgeCount()))

	idx := stopindex.Build(artifacts.Stops)
	shapes := shapestore.Build(artifacts.Shapes)

	var land orb.MultiPolygon
	if c.LandPolygonPath != "" {
		land, err = geo.LoadLandPolygon(c.LandPolygonPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrIOError, err)
		}
	}

	e := &Engine{Graph: g, StopIndex: idx, ShapeStore: shapes, Land: land}

	currentMu.Lock()
	current = e
	currentMu.Unlock()

	return e, nil
}

// Current returns the active Engine, or nil if Load has never succeeded.
func Current() *Engine {
	currentMu.RLock()
	defer currentMu.RUnlock()
	return current
}
