// Package cache wraps Redis result caching for isochrone and route queries,
// with a stampede-guard lock so concurrent identical queries don't all miss
// and recompute at once (§11 DOMAIN STACK).
package cache

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/metrovan/isochrone/internal/config"
	"github.com/metrovan/isochrone/internal/models"
	"github.com/redis/go-redis/v9"
)

var (
	client     *redis.Client
	clientOnce sync.Once
	clientErr  error
	cfg        *config.Config
)

// Init wires the package-level singleton to a loaded Config. Call once at
// startup before GetClient is used; GetClient falls back to config.Load()
// if Init was never called (useful in tests).
func Init(c *config.Config) { cfg = c }

// GetClient returns the global Redis client (singleton pattern, same
// convention as internal/db.GetDB).
func GetClient() (*redis.Client, error) {
	clientOnce.Do(func() {
		if cfg == nil {
			cfg = config.Load()
		}

		opts := &redis.Options{
			Addr:         fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
			MinIdleConns: 2,
		}
		if cfg.RedisTLSEnabled {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}

		client = redis.NewClient(opts)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			clientErr = fmt.Errorf("connect to redis: %w", err)
		}
	})
	return client, clientErr
}

// Close closes the Redis client.
func Close() {
	if client != nil {
		client.Close()
	}
}

// RouteKey derives a deterministic cache key for a §4.6 Route query.
func RouteKey(fromLat, fromLon, toLat, toLon, walkSpeedMPS, maxWalkKm float64) string {
	data := fmt.Sprintf("%.6f,%.6f,%.6f,%.6f,%.3f,%.3f", fromLat, fromLon, toLat, toLon, walkSpeedMPS, maxWalkKm)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("route:%x", hash[:8])
}

// IsochroneKey derives a deterministic cache key for a §4.6 Isochrone query.
func IsochroneKey(lat, lon, budgetMins, walkSpeedMPS, maxWalkKm float64) string {
	data := fmt.Sprintf("%.6f,%.6f,%.2f,%.3f,%.3f", lat, lon, budgetMins, walkSpeedMPS, maxWalkKm)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("isochrone:%x", hash[:8])
}

func lockKey(key string) string { return fmt.Sprintf("lock:%s", key) }

// GetRoute retrieves a cached route. A nil Path with a nil error means a
// cache miss.
func GetRoute(ctx context.Context, key string) (*models.Path, error) {
	var path models.Path
	ok, err := getJSON(ctx, key, &path)
	if err != nil || !ok {
		return nil, err
	}
	return &path, nil
}

// SetRoute caches a route for ttl.
func SetRoute(ctx context.Context, key string, path *models.Path, ttl time.Duration) error {
	return setJSON(ctx, key, path, ttl)
}

// GetIsochrone retrieves cached isochrone GeoJSON bytes. A nil slice with a
// nil error means a cache miss.
func GetIsochrone(ctx context.Context, key string) ([]byte, error) {
	c, err := GetClient()
	if err != nil {
		return nil, err
	}
	data, err := c.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// SetIsochrone caches pre-encoded isochrone GeoJSON bytes for ttl.
func SetIsochrone(ctx context.Context, key string, geojson []byte, ttl time.Duration) error {
	c, err := GetClient()
	if err != nil {
		return err
	}
	return c.Set(ctx, key, geojson, ttl).Err()
}

func getJSON(ctx context.Context, key string, dest any) (bool, error) {
	c, err := GetClient()
	if err != nil {
		return false, err
	}
	data, err := c.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("unmarshal cached value: %w", err)
	}
	return true, nil
}

func setJSON(ctx context.Context, key string, src any, ttl time.Duration) error {
	c, err := GetClient()
	if err != nil {
		return err
	}
	data, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	return c.Set(ctx, key, data, ttl).Err()
}

// AcquireLock attempts the stampede-guard lock, true if acquired.
func AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	c, err := GetClient()
	if err != nil {
		return false, err
	}
	return c.SetNX(ctx, lockKey(key), "1", ttl).Result()
}

// ReleaseLock releases the stampede-guard lock.
func ReleaseLock(ctx context.Context, key string) error {
	c, err := GetClient()
	if err != nil {
		return err
	}
	return c.Del(ctx, lockKey(key)).Err()
}

// WaitForLock blocks until the stampede-guard lock on key is released (the
// in-flight computation finished), so the caller can then re-check its own
// cache key instead of recomputing. Returns an error on ctx cancellation or
// if maxWait elapses first.
func WaitForLock(ctx context.Context, key string, maxWait time.Duration) error {
	deadline := time.Now().Add(maxWait)
	c, err := GetClient()
	if err != nil {
		return err
	}

	for time.Now().Before(deadline) {
		exists, err := c.Exists(ctx, lockKey(key)).Result()
		if err != nil {
			return err
		}
		if exists == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	return fmt.Errorf("timeout waiting for lock %q", key)
}

// HealthCheck pings Redis.
func HealthCheck(ctx context.Context) error {
	c, err := GetClient()
	if err != nil {
		return fmt.Errorf("redis client not initialized: %w", err)
	}
	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Stats reports the pool's connection counters, for the /health surface.
func Stats(ctx context.Context) (map[string]interface{}, error) {
	c, err := GetClient()
	if err != nil {
		return nil, err
	}

	poolStats := c.PoolStats()

	return map[string]interface{}{
		"hits":        poolStats.Hits,
		"misses":      poolStats.Misses,
		"timeouts":    poolStats.Timeouts,
		"total_conns": poolStats.TotalConns,
		"idle_conns":  poolStats.IdleConns,
		"stale_conns": poolStats.StaleConns,
	}, nil
}
