// Package api is the HTTP boundary (§12 EXTERNAL INTERFACES): it translates
// query parameters into Isochrone/Route calls, applies the §7 error
// taxonomy to status codes, and caches results the way the teacher's
// RouteSearch handler cached route computations.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"

	"github.com/metrovan/isochrone/internal/cache"
	"github.com/metrovan/isochrone/internal/config"
	"github.com/metrovan/isochrone/internal/db"
	"github.com/metrovan/isochrone/internal/engine"
	"github.com/metrovan/isochrone/internal/geo"
	"github.com/metrovan/isochrone/internal/graph"
	"github.com/metrovan/isochrone/internal/metrics"
	"github.com/metrovan/isochrone/internal/models"
	"github.com/metrovan/isochrone/internal/router"
)

var cfg *config.Config

// Init wires the package to a loaded Config; call once at startup.
func Init(c *config.Config) { cfg = c }

func walkOptions(c *fiber.Ctx, budgetMins float64) router.SnapOptions {
	opts := router.DefaultSnapOptions(budgetMins)
	if cfg != nil {
		opts.WalkSpeedMPS = cfg.DefaultWalkSpeedMPS
		opts.MaxWalkKm = cfg.DefaultMaxWalkKm
	}
	if v := c.Query("walk_speed_mps"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			opts.WalkSpeedMPS = f
		}
	}
	if v := c.Query("max_walk_km"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			opts.MaxWalkKm = f
		}
	}
	return opts
}

func parseFloatParam(c *fiber.Ctx, name string) (float64, error) {
	v := c.Query(name)
	if v == "" {
		return 0, fmt.Errorf("%w: missing required parameter %q", models.ErrInputMalformed, name)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: parameter %q is not numeric", models.ErrInputMalformed, name)
	}
	return f, nil
}

// statusFor maps the §7 error taxonomy to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInputMalformed):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrOutOfService), errors.Is(err, models.ErrUnreachable):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// Health handles GET /health. Per §7, an IOError (artifacts/land polygon
// missing, or Postgres/Redis down) must fail the health check closed.
func Health(c *fiber.Ctx) error {
	ctx := c.Context()

	dbStatus := "ok"
	if err := db.HealthCheck(ctx); err != nil {
		dbStatus = err.Error()
	}

	redisStatus := "ok"
	if err := cache.HealthCheck(ctx); err != nil {
		redisStatus = err.Error()
	}
	redisStats, _ := cache.Stats(ctx)

	engineStatus := "ok"
	if engine.Current() == nil {
		engineStatus = "no graph loaded"
	}

	healthy := dbStatus == "ok" && redisStatus == "ok" && engineStatus == "ok"
	status := "healthy"
	httpStatus := fiber.StatusOK
	if !healthy {
		status = "unhealthy"
		httpStatus = fiber.StatusServiceUnavailable
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
			"graph":    engineStatus,
		},
		"redis_pool": redisStats,
	})
}

// BuildGraph handles POST /v1/graph: rebuilds the process-wide graph for a
// new departure window (§6 build_graph operation: time_str, window_mins,
// frequency_modifier, speed_factor).
func BuildGraph(c *fiber.Ctx) error {
	timeStr := c.Query("time_str")
	if timeStr == "" {
		timeStr = time.Now().Format("15:04")
	}

	windowMins := cfg.DefaultWindowMins
	if v := c.Query("window_mins"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			windowMins = n
		}
	}
	frequencyModifier := 1.0
	if v := c.Query("frequency_modifier"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			frequencyModifier = f
		}
	}
	speedFactor := 1.0
	if v := c.Query("speed_factor"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			speedFactor = f
		}
	}

	e, err := engine.LoadWithOptions(cfg, graph.BuildOptions{
		TimeStr:           timeStr,
		WindowMins:        windowMins,
		FrequencyModifier: frequencyModifier,
		SpeedFactor:       speedFactor,
	})
	if err != nil {
		log.Printf("graph build failed: %v", err)
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"nodes": e.Graph.NodeCount(),
		"edges": e.Graph.EdgeCount(),
	})
}

// Isochrone handles GET /v1/isochrone (§4.6 Isochrone, §12).
func Isochrone(c *fiber.Ctx) error {
	start := time.Now()
	e := engine.Current()
	if e == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "graph not loaded"})
	}

	lat, err := parseFloatParam(c, "lat")
	var lon, budget float64
	if err == nil {
		lon, err = parseFloatParam(c, "lon")
	}
	if err == nil {
		budget, err = parseFloatParam(c, "budget_mins")
	}
	if err != nil {
		metrics.RouterQueries.WithLabelValues("isochrone", "miss", "input_malformed").Inc()
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return isochroneImpl(c, e, lat, lon, budget, start)
}

func isochroneImpl(c *fiber.Ctx, e *engine.Engine, lat, lon, budget float64, start time.Time) error {
	// §13: an origin outside the land polygon returns empty without
	// ever invoking Dijkstra.
	if len(e.Land) > 0 && !geo.ContainsPoint(e.Land, lon, lat) {
		metrics.RouterQueries.WithLabelValues("isochrone", "miss", "ok").Inc()
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(geojsonBody(nil))
	}

	ctx := context.Background()
	opts := walkOptions(c, budget)
	key := cache.IsochroneKey(lat, lon, budget, opts.WalkSpeedMPS, opts.MaxWalkKm)

	if cached, err := cache.GetIsochrone(ctx, key); err == nil && cached != nil {
		metrics.RouterQueries.WithLabelValues("isochrone", "hit", "ok").Inc()
		metrics.RouterQueryDuration.WithLabelValues("isochrone").Observe(time.Since(start).Seconds())
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(cached)
	}

	acquired, _ := cache.AcquireLock(ctx, key, 5*time.Second)
	if acquired {
		defer cache.ReleaseLock(ctx, key)
	} else if err := cache.WaitForLock(ctx, key, 3*time.Second); err == nil {
		if cached, err := cache.GetIsochrone(ctx, key); err == nil && cached != nil {
			metrics.RouterQueries.WithLabelValues("isochrone", "hit", "ok").Inc()
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Send(cached)
		}
	}

	mp, err := router.Isochrone(e.Graph, e.StopIndex, lat, lon, opts, e.Land)
	metrics.RouterQueryDuration.WithLabelValues("isochrone").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RouterQueries.WithLabelValues("isochrone", "miss", outcomeFor(err)).Inc()
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	body := geojsonBody(mp)
	if cfg != nil {
		_ = cache.SetIsochrone(ctx, key, body, time.Duration(cfg.CacheTTLSeconds)*time.Second)
	}

	metrics.RouterQueries.WithLabelValues("isochrone", "miss", "ok").Inc()
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

// Route handles GET /v1/route (§4.6 Route, §12).
func Route(c *fiber.Ctx) error {
	start := time.Now()
	e := engine.Current()
	if e == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "graph not loaded"})
	}

	fromLat, err := parseFloatParam(c, "from_lat")
	var fromLon, toLat, toLon float64
	if err == nil {
		fromLon, err = parseFloatParam(c, "from_lon")
	}
	if err == nil {
		toLat, err = parseFloatParam(c, "to_lat")
	}
	if err == nil {
		toLon, err = parseFloatParam(c, "to_lon")
	}
	if err != nil {
		metrics.RouterQueries.WithLabelValues("route", "miss", "input_malformed").Inc()
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	ctx := context.Background()
	opts := walkOptions(c, 0)
	opts.BudgetMins = 1e9 // Route has no overall time budget, only per-leg walk caps.

	key := cache.RouteKey(fromLat, fromLon, toLat, toLon, opts.WalkSpeedMPS, opts.MaxWalkKm)
	if cached, err := cache.GetRoute(ctx, key); err == nil && cached != nil {
		metrics.RouterQueries.WithLabelValues("route", "hit", "ok").Inc()
		return c.JSON(cached)
	}

	acquired, _ := cache.AcquireLock(ctx, key, 5*time.Second)
	if acquired {
		defer cache.ReleaseLock(ctx, key)
	} else if err := cache.WaitForLock(ctx, key, 3*time.Second); err == nil {
		if cached, err := cache.GetRoute(ctx, key); err == nil && cached != nil {
			metrics.RouterQueries.WithLabelValues("route", "hit", "ok").Inc()
			return c.JSON(cached)
		}
	}

	path, err := router.Route(e.Graph, e.StopIndex, e.ShapeStore, fromLat, fromLon, toLat, toLon, opts)
	metrics.RouterQueryDuration.WithLabelValues("route").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RouterQueries.WithLabelValues("route", "miss", outcomeFor(err)).Inc()
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	if cfg != nil {
		if err := cache.SetRoute(ctx, key, path, time.Duration(cfg.CacheTTLSeconds)*time.Second); err != nil {
			log.Printf("cache route: %v", err)
		}
	}

	metrics.RouterQueries.WithLabelValues("route", "miss", "ok").Inc()
	return c.JSON(path)
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, models.ErrOutOfService):
		return "out_of_service"
	case errors.Is(err, models.ErrUnreachable):
		return "unreachable"
	default:
		return "error"
	}
}

// geojsonBody turns a (possibly nil/empty) isochrone result into a GeoJSON
// FeatureCollection, per §6 "one polygon or multi-polygon in EPSG:4326,
// possibly empty".
func geojsonBody(mp orb.MultiPolygon) []byte {
	fc := geojson.NewFeatureCollection()
	if len(mp) > 0 {
		polys := make([][][][]float64, len(mp))
		for i, poly := range mp {
			rings := make([][][]float64, len(poly))
			for j, ring := range poly {
				pts := make([][]float64, len(ring))
				for k, p := range ring {
					pts[k] = []float64{p[0], p[1]}
				}
				rings[j] = pts
			}
			polys[i] = rings
		}
		geometry := geojson.NewMultiPolygonGeometry(polys...)
		fc.AddFeature(geojson.NewFeature(geometry))
	}
	body, err := json.Marshal(fc)
	if err != nil {
		return []byte(`{"type":"FeatureCollection","features":[]}`)
	}
	return body
}
