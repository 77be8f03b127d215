// Package models holds the plain data types shared across the preprocessing,
// graph-building and routing stages: stops, routes, shapes, the edge records
// produced by the preprocessor, and the request/response shapes the router
// hands back to callers.
package models

import "time"

// TransitMode represents the type of transit service a route operates.
type TransitMode string

const (
	ModeBus   TransitMode = "BUS"
	ModeBRT   TransitMode = "BRT"
	ModeTER   TransitMode = "TER"
	ModeFerry TransitMode = "FERRY"
	ModeTram  TransitMode = "TRAM"
	ModeRail  TransitMode = "RAIL"
)

// EdgeType is the kind of hop a TimeWindowedGraph edge represents.
type EdgeType string

const (
	EdgeBoard   EdgeType = "board"
	EdgeTravel  EdgeType = "travel"
	EdgeDeboard EdgeType = "deboard"
	EdgeWalk    EdgeType = "walk"
)

// Stop is a physical transit stop location. Identity is StopID; immutable
// after the feed is loaded.
type Stop struct {
	StopID string
	Name   string
	Lat    float64
	Lon    float64
}

// Route is a logical transit line. RouteName is the routing key: two trips
// sharing the same RouteName are treated as one service.
type Route struct {
	RouteID   string
	AgencyID  string
	ShortName string
	LongName  string
	RouteName string
	Mode      TransitMode
}

// DeriveRouteName implements the short_name-or-"Skytrain" fallback from §3/§4.1.
func DeriveRouteName(shortName, longName string) string {
	short := shortName
	if short == "" {
		short = "Skytrain"
	}
	if longName == "" {
		return short
	}
	return short + longName
}

// Shape is the ordered, distance-sorted polyline for one GTFS shape_id.
// Dists and Coords are parallel arrays of equal length, Dists strictly
// non-decreasing.
type Shape struct {
	ShapeID string
	Dists   []float64
	Coords  [][2]float64 // [lon, lat]
}

// Trip is one scheduled departure on a NetworkEdge.
type Trip struct {
	DeptSec int // seconds since midnight
	DurSec  int // in-vehicle duration, seconds
}

// NetworkEdgeKey identifies one (origin stop, destination stop, route) edge.
type NetworkEdgeKey struct {
	U     string
	V     string
	Route string
}

// NetworkEdge is the preprocessed record for one (u, v, route) triple: the
// shape segment it rides and every scheduled departure observed for it.
type NetworkEdge struct {
	Key     NetworkEdgeKey
	ShapeID string
	DistU   float64
	DistV   float64
	Trips   []Trip
}

// TransferEdgeKey identifies one walking-transfer edge.
type TransferEdgeKey struct {
	U string
	V string
}

// TransferEdge is the minimum walking-transfer time between two stops.
type TransferEdge struct {
	Key     TransferEdgeKey
	TimeSec int
}

// Artifacts are the four persisted outputs of the Preprocessor (§4.4),
// consumed by the Graph Builder without ever re-parsing GTFS.
type Artifacts struct {
	ServiceID     int
	NetworkEdges  map[NetworkEdgeKey]*NetworkEdge
	TransferEdges map[TransferEdgeKey]*TransferEdge
	Stops         map[string]*Stop
	Shapes        map[string]*Shape
}

// Node identifies a vertex in the TimeWindowedGraph. Per DESIGN NOTE
// "stringly-typed node identity" this is a tagged variant rather than a
// concatenated string: StopID is always set, RouteName is set only for
// route nodes.
type Node struct {
	StopID    string
	RouteName string // empty for street nodes
}

// IsStreetNode reports whether n is a bare stop (no route component).
func (n Node) IsStreetNode() bool { return n.RouteName == "" }

// Base strips the route component, returning the underlying street node.
func (n Node) Base() Node { return Node{StopID: n.StopID} }

// Edge is one directed hop in the TimeWindowedGraph.
type Edge struct {
	To      Node
	Type    EdgeType
	Weight  float64 // minutes
	RouteID string
	ShapeID string
	DistU   float64
	DistV   float64
}

// StopInfo names a stop inside a Step's intermediate-stop list.
type StopInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Step is one leg of a reconstructed route: a walk, a wait-and-board, a
// ride, or a deboard.
type Step struct {
	Type         EdgeType    `json:"type"`
	Instruction  string      `json:"instruction"`
	FromStop     string      `json:"from_stop,omitempty"`
	ToStop       string      `json:"to_stop,omitempty"`
	FromStopName string      `json:"from_stop_name,omitempty"`
	ToStopName   string      `json:"to_stop_name,omitempty"`
	Route        string      `json:"route,omitempty"`
	Mode         TransitMode `json:"mode,omitempty"`
	DurationMin  float64     `json:"duration_minutes"`
	Stops        []StopInfo  `json:"stops,omitempty"`
}

// Path is a fully reconstructed origin-to-destination route.
type Path struct {
	Steps        []Step       `json:"steps"`
	Coordinates  [][2]float64 `json:"coordinates"` // [lon, lat], dense
	Polyline     string       `json:"polyline"`     // encoded, precision 5
	TotalMinutes float64      `json:"total_minutes"`
}

// GTFS raw-table row types, read by internal/gtfsfeed.

// GTFSAgency represents an agency from agency.txt
type GTFSAgency struct {
	AgencyID   string
	AgencyName string
	AgencyURL  string
	Timezone   string
}

// GTFSStop represents a stop from stops.txt
type GTFSStop struct {
	StopID   string
	StopName string
	Lat      float64
	Lon      float64
}

// GTFSRoute represents a route from routes.txt
type GTFSRoute struct {
	RouteID    string
	AgencyID   string
	ShortName  string
	LongName   string
	RouteType  int
	RouteColor string
}

// GTFSTrip represents a trip from trips.txt
type GTFSTrip struct {
	RouteID   string
	ServiceID string
	TripID    string
	ShapeID   string
	Headsign  string
	Direction int
}

// GTFSStopTime represents a stop time from stop_times.txt
type GTFSStopTime struct {
	TripID           string
	ArrivalSec       int
	DepartureSec     int
	StopID           string
	StopSequence     int
	ShapeDistTraveled float64
	HasShapeDist     bool
}

// GTFSTransfer represents a row from transfers.txt
type GTFSTransfer struct {
	FromStopID      string
	ToStopID        string
	TransferType    int
	MinTransferTime *int
}

// GTFSShapePoint represents a row from shapes.txt
type GTFSShapePoint struct {
	ShapeID      string
	Lat          float64
	Lon          float64
	Sequence     int
	DistTraveled float64
}

// PreprocessingRun is one audited preprocessor invocation, persisted via
// internal/db.
type PreprocessingRun struct {
	ID          int64
	ServiceID   int
	FeedPath    string
	StartedAt   time.Time
	CompletedAt *time.Time
	Status      string
	StopsCount  int
	EdgesCount  int
	ShapesCount int
	ErrorMsg    string
}
