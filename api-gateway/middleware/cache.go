package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/tair/cosmetics-recommender/pkg/logger"
)

// CacheKeyPrefix namespaces every cached gateway response.
const CacheKeyPrefix = "gateway:cache:"

// CacheConfig holds cache configuration
type CacheConfig struct {
	TTL   time.Duration
	Paths []string // path prefixes whose GET responses are cached
}

// DefaultCacheConfig caches catalog reads and quick recommendations.
func DefaultCacheConfig(ttl time.Duration) CacheConfig {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return CacheConfig{
		TTL:   ttl,
		Paths: []string{"/api/products", "/api/recommendations/quick"},
	}
}

func (cfg CacheConfig) matches(path string) bool {
	for _, prefix := range cfg.Paths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// CacheMiddleware serves successful GET responses from Redis. Only 200
// responses are stored. A nil client disables caching.
func CacheMiddleware(redisClient *redis.Client, config CacheConfig, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if redisClient == nil || c.Method() != fiber.MethodGet || !config.matches(c.Path()) {
			return c.Next()
		}

		ctx := c.UserContext()
		cacheKey := generateCacheKey(c)

		cachedResponse, err := redisClient.Get(ctx, cacheKey).Bytes()
		if err == nil && len(cachedResponse) > 0 {
			logger.Debug(ctx).
				Str("path", c.Path()).
				Str("cache_key", cacheKey).
				Msg("Cache hit")
			recordCache(metrics, "hit")

			c.Set("X-Cache", "HIT")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Send(cachedResponse)
		}
		recordCache(metrics, "miss")

		err = c.Next()
		if err != nil || c.Response().StatusCode() != fiber.StatusOK {
			return err
		}

		body := append([]byte(nil), c.Response().Body()...)
		if err := redisClient.Set(ctx, cacheKey, body, config.TTL).Err(); err != nil {
			logger.Warn(ctx).
				Err(err).
				Str("cache_key", cacheKey).
				Msg("Failed to cache response")
		} else {
			logger.Debug(ctx).
				Str("path", c.Path()).
				Dur("ttl", config.TTL).
				Int("size", len(body)).
				Msg("Response cached")
		}
		c.Set("X-Cache", "MISS")
		return nil
	}
}

// InvalidateOnWrite drops every cached response after a successful catalog
// mutation, since product changes affect both listings and recommendations.
func InvalidateOnWrite(redisClient *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if redisClient == nil || !isWrite(c.Method()) {
			return err
		}

		status := c.Response().StatusCode()
		if err != nil || status < 200 || status >= 300 {
			return err
		}

		if _, invErr := InvalidateCache(c.UserContext(), redisClient); invErr != nil {
			logger.Warn(c.UserContext()).Err(invErr).Msg("Failed to invalidate response cache")
		}
		return nil
	}
}

func generateCacheKey(c *fiber.Ctx) string {
	keyComponents := fmt.Sprintf("%s:%s:%s",
		c.Method(),
		c.Path(),
		string(c.Request().URI().QueryString()),
	)

	hash := sha256.Sum256([]byte(keyComponents))
	return CacheKeyPrefix + hex.EncodeToString(hash[:])
}

func recordCache(m *Metrics, result string) {
	if m != nil {
		m.cacheResults.WithLabelValues(result).Inc()
	}
}

// InvalidateCache deletes every cached gateway response and reports how many
// keys were removed.
func InvalidateCache(ctx context.Context, redisClient *redis.Client) (int, error) {
	iter := redisClient.Scan(ctx, 0, CacheKeyPrefix+"*", 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, err
	}

	if len(keys) == 0 {
		return 0, nil
	}
	if err := redisClient.Del(ctx, keys...).Err(); err != nil {
		return 0, err
	}

	logger.Info(ctx).
		Int("count", len(keys)).
		Msg("Cache invalidated")
	return len(keys), nil
}
