// README: Redis memoization layer in front of a distance oracle.
package maps

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"smartdispatch/internal/modules/location"
	"smartdispatch/internal/types"
)

// Cache TTL: road geometry does not move; a day keeps repeat simulations cheap
// while still picking up traffic-model changes eventually.
const cacheTTL = 24 * time.Hour

// CachedOracle memoizes another oracle's answers in Redis. Cache misses and
// Redis errors both fall through to the inner oracle.
type CachedOracle struct {
	inner location.Oracle
	redis *redis.Client
}

func NewCachedOracle(inner location.Oracle, rdb *redis.Client) *CachedOracle {
	return &CachedOracle{inner: inner, redis: rdb}
}

func (c *CachedOracle) DistanceKm(a, b types.Point) float64 {
	return c.cached("dist", a, b, c.inner.DistanceKm)
}

func (c *CachedOracle) TravelTimeMins(a, b types.Point) float64 {
	return c.cached("time", a, b, c.inner.TravelTimeMins)
}

func (c *CachedOracle) cached(kind string, a, b types.Point, compute func(a, b types.Point) float64) float64 {
	ctx := context.Background()
	key := cacheKey(kind, a, b)
	if val, err := c.redis.Get(ctx, key).Result(); err == nil {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	v := compute(a, b)
	_ = c.redis.Set(ctx, key, strconv.FormatFloat(v, 'f', -1, 64), cacheTTL).Err()
	return v
}

func cacheKey(kind string, a, b types.Point) string {
	return fmt.Sprintf("oracle:%s:%.6f,%.6f:%.6f,%.6f", kind, a.Lat, a.Lng, b.Lat, b.Lng)
}
