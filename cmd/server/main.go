// Command server runs the HTTP query API (§12), wiring together the
// engine singleton, Redis cache, and Postgres audit log the way the
// teacher's cmd/api/main.go assembled its Fiber app.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/metrovan/isochrone/internal/api"
	"github.com/metrovan/isochrone/internal/cache"
	"github.com/metrovan/isochrone/internal/config"
	"github.com/metrovan/isochrone/internal/db"
	"github.com/metrovan/isochrone/internal/engine"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

func main() {
	log.Println("Starting isochrone query server...")

	cfg := config.Load()
	api.Init(cfg)
	db.Init(cfg)
	cache.Init(cfg)

	if _, err := db.GetDB(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("✓ Database connection established")

	if _, err := cache.GetClient(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer cache.Close()
	log.Println("✓ Redis connection established")

	if _, err := engine.Load(cfg, time.Now().Format("15:04")); err != nil {
		log.Fatalf("Failed to load routing graph: %v", err)
	}
	log.Println("✓ Routing graph loaded into memory")

	app := fiber.New(fiber.Config{
		AppName:      "isochrone",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())

	app.Get("/health", api.Health)
	app.Get("/metrics", func(c *fiber.Ctx) error {
		metricsHandler(c.Context())
		return nil
	})
	app.Post("/v1/graph", api.BuildGraph)
	app.Get("/v1/isochrone", api.Isochrone)
	app.Get("/v1/route", api.Route)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "endpoint not found"})
	})

	addr := fmt.Sprintf(":%s", cfg.Port)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("🚀 Server listening on http://localhost%s", addr)
	log.Printf("📍 Isochrone: http://localhost%s/v1/isochrone?lat=&lon=&budget_mins=", addr)
	log.Printf("📍 Route: http://localhost%s/v1/route?from_lat=&from_lon=&to_lat=&to_lon=", addr)
	log.Printf("❤️  Health check: http://localhost%s/health", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	log.Printf("Error: %v", err)
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
