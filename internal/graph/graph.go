// Package graph is the Graph Builder (§4.5) and the graph half of the
// Router (§4.6): it assembles a TimeWindowedGraph from the Preprocessor's
// artifacts plus per-build knobs, and runs Dijkstra over it with an
// optional cost cutoff.
package graph

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/metrovan/isochrone/internal/models"
)

// StreetNode returns the tagged street-node variant for a stop (§9
// "stringly-typed node identity" redesign: a single Node type with a
// Base()/IsStreetNode() pair of accessors rather than string concatenation
// parsed back apart).
func StreetNode(stopID string) models.Node { return models.Node{StopID: stopID} }

// RouteNode returns the tagged route-node variant for (stop, route).
func RouteNode(stopID, route string) models.Node {
	return models.Node{StopID: stopID, RouteName: route}
}

// Graph is a directed multigraph over models.Node, mutable only at query
// scope (virtual USER_START/USER_END nodes, §5 "Query isolation"). A
// single mutex spans snap -> Dijkstra -> cleanup so the pre/post-query
// state contract holds even under concurrent callers serialized on this
// lock.
type Graph struct {
	mu    sync.Mutex
	edges map[models.Node][]models.Edge
	// hasBoard tracks which (street, route) board edges already exist, for
	// the idempotent "first occurrence wins" rule (§4.5 step 2e, §9 open
	// question: later windows' wait-time updates are intentionally discarded).
	hasBoard map[models.Node]bool
}

func newGraph() *Graph {
	return &Graph{
		edges:    make(map[models.Node][]models.Edge),
		hasBoard: make(map[models.Node]bool),
	}
}

// BuildOptions are the Graph Builder's inputs beyond the artifacts
// themselves (§4.5, §6 build_graph parameters).
type BuildOptions struct {
	TimeStr            string // "HH:MM"
	WindowMins         int
	FrequencyModifier  float64
	SpeedFactor        float64
}

// DefaultBuildOptions mirrors the §6 documented defaults.
func DefaultBuildOptions(timeStr string) BuildOptions {
	return BuildOptions{
		TimeStr:           timeStr,
		WindowMins:        60,
		FrequencyModifier: 1.0,
		SpeedFactor:       1.0,
	}
}

// Build implements §4.5: for every network edge whose trips fall inside
// the requested window, emit board/travel/deboard edges; for every
// transfer edge, emit a walk edge. Returns an error wrapping
// models.ErrInputMalformed if TimeStr doesn't parse.
func Build(artifacts *models.Artifacts, opts BuildOptions) (*Graph, error) {
	center, err := parseHHMM(opts.TimeStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInputMalformed, err)
	}
	if opts.WindowMins <= 0 {
		opts.WindowMins = 60
	}
	if opts.FrequencyModifier <= 0 {
		opts.FrequencyModifier = 1.0
	}
	if opts.SpeedFactor <= 0 {
		opts.SpeedFactor = 1.0
	}

	windowSec := opts.WindowMins * 60
	startSec := center - windowSec/2
	endSec := center + windowSec/2

	g := newGraph()

	for _, edge := range artifacts.NetworkEdges {
		var valid []models.Trip
		for _, trip := range edge.Trips {
			if trip.DeptSec >= startSec && trip.DeptSec <= endSec {
				valid = append(valid, trip)
			}
		}
		if len(valid) == 0 {
			continue // §4.5 step 2a: no trips in window, skip.
		}

		n := len(valid)
		sumDur := 0
		for _, t := range valid {
			sumDur += t.DurSec
		}
		avgDurSec := float64(sumDur) / float64(n)

		travelWeight := (avgDurSec / opts.SpeedFactor) / 60.0

		headwaySec := float64(windowSec) / float64(n)
		waitMin := (headwaySec / 2.0) / 60.0
		waitMin /= opts.FrequencyModifier

		u := StreetNode(edge.Key.U)
		v := StreetNode(edge.Key.V)
		uRoute := RouteNode(edge.Key.U, edge.Key.Route)
		vRoute := RouteNode(edge.Key.V, edge.Key.Route)

		g.addBoardEdge(u, uRoute, waitMin, edge.Key.Route)
		g.addEdge(uRoute, models.Edge{
			To: vRoute, Type: models.EdgeTravel, Weight: travelWeight,
			RouteID: edge.Key.Route, ShapeID: edge.ShapeID, DistU: edge.DistU, DistV: edge.DistV,
		})
		g.addEdge(vRoute, models.Edge{To: v, Type: models.EdgeDeboard, Weight: 0, RouteID: edge.Key.Route})
	}

	for _, t := range artifacts.TransferEdges {
		u := StreetNode(t.Key.U)
		v := StreetNode(t.Key.V)
		g.addEdge(u, models.Edge{To: v, Type: models.EdgeWalk, Weight: float64(t.TimeSec) / 60.0})
	}

	return g, nil
}

func parseHHMM(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time_str %q, want HH:MM", s)
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time_str %q, want HH:MM", s)
	}
	return h*3600 + m*60, nil
}

// addBoardEdge is idempotent: only the first call for a given (street,
// route node) pair takes effect, per the documented open question in §9.
func (g *Graph) addBoardEdge(street, routeNode models.Node, waitMin float64, route string) {
	if g.hasBoard[routeNode] {
		return
	}
	g.hasBoard[routeNode] = true
	g.addEdge(street, models.Edge{To: routeNode, Type: models.EdgeBoard, Weight: waitMin, RouteID: route})
}

func (g *Graph) addEdge(from models.Node, e models.Edge) {
	g.edges[from] = append(g.edges[from], e)
}

// Edges returns the outgoing edges of a node (read-only snapshot-by-value
// slice; callers must not mutate edge fields of the returned entries).
func (g *Graph) Edges(n models.Node) []models.Edge {
	return g.edges[n]
}

// NodeCount and EdgeCount support the §8 "graph purity" invariant: every
// query must leave these unchanged.
func (g *Graph) NodeCount() int {
	nodes := g.nodeSet()
	return len(nodes)
}

func (g *Graph) EdgeCount() int {
	total := 0
	for _, es := range g.edges {
		total += len(es)
	}
	return total
}

func (g *Graph) nodeSet() map[models.Node]struct{} {
	nodes := make(map[models.Node]struct{})
	for from, es := range g.edges {
		nodes[from] = struct{}{}
		for _, e := range es {
			nodes[e.To] = struct{}{}
		}
	}
	return nodes
}

// Lock/Unlock bound the snap -> Dijkstra -> cleanup span of one query, per
// §5 "Query isolation": exactly one query may mutate the graph at a time.
func (g *Graph) Lock()   { g.mu.Lock() }
func (g *Graph) Unlock() { g.mu.Unlock() }

// AddVirtualEdge adds a single directed edge without participating in the
// board-edge dedup rule; used by Snap to attach USER_START/USER_END.
// Callers must hold the lock (Lock/Unlock) for the duration of the query.
func (g *Graph) AddVirtualEdge(from models.Node, e models.Edge) {
	g.addEdge(from, e)
}

// RemoveNode deletes every edge into or out of n, restoring the graph to
// its pre-query state (§5, §4.6 step 5/9: "remove virtual node(s) before
// returning, even on failure paths"). Callers must hold the lock.
func (g *Graph) RemoveNode(n models.Node) {
	delete(g.edges, n)
	for from, es := range g.edges {
		filtered := es[:0:0]
		for _, e := range es {
			if e.To != n {
				filtered = append(filtered, e)
			}
		}
		if len(filtered) == 0 {
			delete(g.edges, from)
		} else {
			g.edges[from] = filtered
		}
	}
	delete(g.hasBoard, n)
}
