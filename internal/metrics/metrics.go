// Package metrics exposes Prometheus counters and gauges for the
// preprocessor, graph builder, and router (§11 DOMAIN STACK), registered
// against the default registry and served at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PreprocessingRuns is registered for preprocessor invocations by
	// outcome. Nothing in this module increments it (the preprocessor runs
	// as the separate cmd/preprocess command), so it stays at zero.
	PreprocessingRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "isochrone_preprocessing_runs_total",
		Help: "Preprocessor invocations by status (completed, failed).",
	}, []string{"status"})

	// GraphBuilds counts Graph Builder invocations.
	GraphBuilds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "isochrone_graph_builds_total",
		Help: "Number of times the time-windowed graph has been rebuilt.",
	})

	// GraphNodes and GraphEdges track the active graph's size.
	GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "isochrone_graph_nodes",
		Help: "Node count of the currently loaded graph.",
	})
	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "isochrone_graph_edges",
		Help: "Edge count of the currently loaded graph.",
	})

	// RouterQueries counts isochrone/route queries by operation, cache
	// outcome, and success/failure category (§7 taxonomy).
	RouterQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "isochrone_router_queries_total",
		Help: "Router queries by operation, cache result, and outcome.",
	}, []string{"operation", "cache", "outcome"})

	// RouterQueryDuration measures end-to-end query latency, including any
	// cache round-trip.
	RouterQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "isochrone_router_query_duration_seconds",
		Help:    "Router query latency by operation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)
