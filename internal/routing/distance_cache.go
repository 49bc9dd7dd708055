package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedProvider wraps a Provider with a Redis cache for plain
// distance/duration lookups. Drivers barely move between consecutive
// tracking polls, so origins are quantized to ~11 m before keying and
// repeated probes skip the routing server entirely.
//
// Geometry calls pass through untouched; cached polylines are the
// tracking.RouteCache's job, keyed by order.
type CachedProvider struct {
	Provider
	rdb *redis.Client
	ttl time.Duration
}

// NewCachedProvider wraps p with a Redis distance cache.
func NewCachedProvider(p Provider, rdb *redis.Client, ttl time.Duration) *CachedProvider {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &CachedProvider{Provider: p, rdb: rdb, ttl: ttl}
}

func distanceKey(origin, dest Coord) string {
	// 4 decimal places ≈ 11 m grid
	return fmt.Sprintf("osrm:dist:%.4f,%.4f|%.4f,%.4f", origin.Lat, origin.Lng, dest.Lat, dest.Lng)
}

// RoadDistance serves from Redis when a fresh entry exists, otherwise
// delegates and stores the result. Cache failures degrade to a plain
// provider call.
func (c *CachedProvider) RoadDistance(ctx context.Context, origin, dest Coord) (DistanceResult, error) {
	key := distanceKey(origin, dest)

	if raw, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var cached DistanceResult
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
	}

	result, err := c.Provider.RoadDistance(ctx, origin, dest)
	if err != nil {
		return DistanceResult{}, err
	}

	raw, err := json.Marshal(result)
	if err == nil {
		if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			log.Printf("distance cache write failed: %v", err)
		}
	}

	return result, nil
}
