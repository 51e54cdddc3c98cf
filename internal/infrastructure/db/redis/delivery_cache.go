package redis

import (
	"context"
	"errors"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/freshcart/delivery-service/internal/api/metrics"
	"github.com/freshcart/delivery-service/internal/core/domain"
	"github.com/freshcart/delivery-service/internal/core/ports"
)

const (
	defaultCacheTTL = 2 * time.Minute
	notFoundTTL     = 15 * time.Second
	notFoundMarker  = "N/A"
)

// DeliveryCache is a read-through cache in front of a DeliveryDirectory.
// Entries are JSON strings keyed by delivery id; unknown deliveries are
// remembered briefly as a marker value.
type DeliveryCache struct {
	cache *cache.Cache[string]
	next  ports.DeliveryDirectory
	log   zerolog.Logger
}

// NewDeliveryCache wraps next with a Redis-backed cache. A non-positive ttl
// uses defaultCacheTTL.
func NewDeliveryCache(client *redis.Client, next ports.DeliveryDirectory, ttl time.Duration, log zerolog.Logger) *DeliveryCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	redisStore := redisstore.NewRedis(client, store.WithExpiration(ttl))

	return &DeliveryCache{
		cache: cache.New[string](redisStore),
		next:  next,
		log:   log,
	}
}

// FindDelivery returns the cached delivery or loads it from the directory.
// Cache failures fall through to the directory.
func (c *DeliveryCache) FindDelivery(ctx context.Context, deliveryID string) (*domain.Delivery, error) {
	key := cacheKey(deliveryID)

	if cached, err := c.cache.Get(ctx, key); err == nil {
		if cached == notFoundMarker {
			metrics.DirectoryCacheTotal.WithLabelValues("hit").Inc()
			return nil, domain.ErrDeliveryNotFound
		}
		var d domain.Delivery
		if err := json.Unmarshal([]byte(cached), &d); err == nil {
			metrics.DirectoryCacheTotal.WithLabelValues("hit").Inc()
			return &d, nil
		}
		c.log.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	}
	metrics.DirectoryCacheTotal.WithLabelValues("miss").Inc()

	d, err := c.next.FindDelivery(ctx, deliveryID)
	if errors.Is(err, domain.ErrDeliveryNotFound) {
		if setErr := c.cache.Set(ctx, key, notFoundMarker, store.WithExpiration(notFoundTTL)); setErr != nil {
			c.log.Warn().Err(setErr).Str("key", key).Msg("cache set failed")
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(d)
	if err != nil {
		return d, nil
	}
	if err := c.cache.Set(ctx, key, string(encoded)); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
	return d, nil
}

// Invalidate drops the cached entry for a delivery.
func (c *DeliveryCache) Invalidate(ctx context.Context, deliveryID string) error {
	return c.cache.Delete(ctx, cacheKey(deliveryID))
}

func cacheKey(deliveryID string) string {
	return "delivery-service:directory:" + deliveryID
}
