// Package cache implements the discovery result cache. It exists purely to
// bound calls to the rate-limited place-search provider; it is not a source of
// truth and may be cleared at any time.
package cache

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/jdoseph/rateyourcourt-sub000/internal/db"
	"github.com/jdoseph/rateyourcourt-sub000/internal/geomatch"
)

// Key identifies a discovery query. Coordinates are rounded to a fixed
// precision when hashed so that near-identical queries from UI jitter collide
// deliberately.
type Key struct {
	Point   geomatch.Point
	RadiusM float64
	Sport   string
}

// Cache is a Postgres-backed keyed cache of discovery results with a
// freshness window.
type Cache struct {
	pool      db.Pool
	ttl       time.Duration
	precision int
}

// New creates a Cache. precision is the number of coordinate decimal places
// kept in the key (3 ≈ 110 m).
func New(pool db.Pool, ttl time.Duration, precision int) *Cache {
	if precision <= 0 {
		precision = 3
	}
	return &Cache{pool: pool, ttl: ttl, precision: precision}
}

// hash returns SHA-256 hex of the normalized query key.
func (c *Cache) hash(k Key) string {
	scale := math.Pow(10, float64(c.precision))
	lat := math.Round(k.Point.Lat*scale) / scale
	lng := math.Round(k.Point.Lng*scale) / scale

	normalized := fmt.Sprintf("%.*f|%.*f|%.0f|%s", c.precision, lat, c.precision, lng, k.RadiusM, k.Sport)
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", h)
}

// Get looks up a cached discovery payload. An entry older than the freshness
// window is a miss and is evicted lazily.
func (c *Cache) Get(ctx context.Context, k Key) ([]byte, bool, error) {
	key := c.hash(k)

	var payload []byte
	var fetchedAt time.Time
	err := c.pool.QueryRow(ctx,
		`SELECT payload, fetched_at FROM discovery_cache WHERE query_hash = $1`, key,
	).Scan(&payload, &fetchedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, eris.Wrap(err, "cache: lookup")
	}

	if time.Since(fetchedAt) > c.ttl {
		if _, err := c.pool.Exec(ctx,
			`DELETE FROM discovery_cache WHERE query_hash = $1`, key,
		); err != nil {
			zap.L().Warn("cache: evict expired entry failed", zap.Error(err))
		}
		return nil, false, nil
	}

	zap.L().Debug("discovery cache hit", zap.String("key", key[:12]))
	return payload, true, nil
}

// Put stores a discovery payload, replacing any previous entry for the key.
func (c *Cache) Put(ctx context.Context, k Key, payload []byte) error {
	_, err := c.pool.Exec(ctx, `
		INSERT INTO discovery_cache (query_hash, payload, fetched_at)
		VALUES ($1, $2, now())
		ON CONFLICT (query_hash) DO UPDATE SET
			payload = EXCLUDED.payload,
			fetched_at = now()`,
		c.hash(k), payload,
	)
	if err != nil {
		return eris.Wrap(err, "cache: store")
	}
	return nil
}

// Clear drops every cache entry. Safe at any time; only cost and latency are
// affected.
func (c *Cache) Clear(ctx context.Context) error {
	if _, err := c.pool.Exec(ctx, `DELETE FROM discovery_cache`); err != nil {
		return eris.Wrap(err, "cache: clear")
	}
	return nil
}
