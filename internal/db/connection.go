// Package db holds the Postgres connection pool and the preprocessing_run
// audit table (§11 DOMAIN STACK): one row per preprocessor invocation,
// recording feed path, service_id, counts, and success/failure.
package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/metrovan/isochrone/internal/config"
	"github.com/metrovan/isochrone/internal/models"
)

var (
	pool     *pgxpool.Pool
	poolOnce sync.Once
	poolErr  error
	cfg      *config.Config
)

// Init wires the package-level singleton to a loaded Config.
func Init(c *config.Config) { cfg = c }

// GetDB returns the global connection pool (singleton pattern).
func GetDB() (*pgxpool.Pool, error) {
	poolOnce.Do(func() {
		if cfg == nil {
			cfg = config.Load()
		}
		pool, poolErr = initPool(cfg)
	})
	return pool, poolErr
}

func initPool(c *config.Config) (*pgxpool.Pool, error) {
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("%w: DATABASE_URL not configured", models.ErrIOError)
	}

	poolConfig, err := pgxpool.ParseConfig(c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}

	poolConfig.MinConns = c.DBMinConns
	poolConfig.MaxConns = c.DBMaxConns
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := ensureSchema(ctx, p); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

func ensureSchema(ctx context.Context, p *pgxpool.Pool) error {
	_, err := p.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS preprocessing_run (
			id             BIGSERIAL PRIMARY KEY,
			service_id     INTEGER NOT NULL,
			feed_path      TEXT NOT NULL,
			started_at     TIMESTAMPTZ NOT NULL,
			completed_at   TIMESTAMPTZ,
			status         TEXT NOT NULL,
			stops_count    INTEGER NOT NULL DEFAULT 0,
			edges_count    INTEGER NOT NULL DEFAULT 0,
			shapes_count   INTEGER NOT NULL DEFAULT 0,
			error_msg      TEXT NOT NULL DEFAULT ''
		)`)
	if err != nil {
		return fmt.Errorf("ensure preprocessing_run schema: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func Close() {
	if pool != nil {
		pool.Close()
	}
}

// HealthCheck pings the database. Used by the /health endpoint; per §7,
// IOError here must fail the health check closed.
func HealthCheck(ctx context.Context) error {
	p, err := GetDB()
	if err != nil {
		return fmt.Errorf("%w: database not initialized: %v", models.ErrIOError, err)
	}
	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("%w: database ping failed: %v", models.ErrIOError, err)
	}
	return nil
}

// StartRun inserts a new preprocessing_run row and returns its id.
func StartRun(ctx context.Context, serviceID int, feedPath string) (int64, error) {
	p, err := GetDB()
	if err != nil {
		return 0, err
	}
	var id int64
	err = p.QueryRow(ctx, `
		INSERT INTO preprocessing_run (service_id, feed_path, started_at, status)
		VALUES ($1, $2, $3, 'running') RETURNING id`,
		serviceID, feedPath, time.Now()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert preprocessing_run: %w", err)
	}
	return id, nil
}

// CompleteRun marks a run successful and records output counts.
func CompleteRun(ctx context.Context, id int64, stops, edges, shapes int) error {
	p, err := GetDB()
	if err != nil {
		return err
	}
	_, err = p.Exec(ctx, `
		UPDATE preprocessing_run
		SET completed_at = $2, status = 'completed', stops_count = $3, edges_count = $4, shapes_count = $5
		WHERE id = $1`,
		id, time.Now(), stops, edges, shapes)
	if err != nil {
		return fmt.Errorf("complete preprocessing_run %d: %w", id, err)
	}
	return nil
}

// FailRun marks a run failed and records the error.
func FailRun(ctx context.Context, id int64, cause error) error {
	p, err := GetDB()
	if err != nil {
		return err
	}
	_, err = p.Exec(ctx, `
		UPDATE preprocessing_run SET completed_at = $2, status = 'failed', error_msg = $3 WHERE id = $1`,
		id, time.Now(), cause.Error())
	if err != nil {
		return fmt.Errorf("fail preprocessing_run %d: %w", id, err)
	}
	return nil
}

// LatestRun returns the most recent preprocessing_run row, if any.
func LatestRun(ctx context.Context) (*models.PreprocessingRun, error) {
	p, err := GetDB()
	if err != nil {
		return nil, err
	}
	var r models.PreprocessingRun
	err = p.QueryRow(ctx, `
		SELECT id, service_id, feed_path, started_at, completed_at, status, stops_count, edges_count, shapes_count, error_msg
		FROM preprocessing_run ORDER BY started_at DESC LIMIT 1`).Scan(
		&r.ID, &r.ServiceID, &r.FeedPath, &r.StartedAt, &r.CompletedAt, &r.Status, &r.StopsCount, &r.EdgesCount, &r.ShapesCount, &r.ErrorMsg)
	if err != nil {
		return nil, fmt.Errorf("query latest preprocessing_run: %w", err)
	}
	return &r, nil
}
