package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/tair/cosmetics-recommender/pkg/logger"
)

// RateLimiter is a per-client sliding window kept in a Redis sorted set.
type RateLimiter struct {
	redis       *redis.Client
	name        string
	maxRequests int
	window      time.Duration
	metrics     *Metrics
}

// NewRateLimiter creates a new rate limiter. name scopes the Redis keys so
// several limiters can count the same client independently.
func NewRateLimiter(redisClient *redis.Client, name string, maxRequests int, window time.Duration, metrics *Metrics) *RateLimiter {
	return &RateLimiter{
		redis:       redisClient,
		name:        name,
		maxRequests: maxRequests,
		window:      window,
		metrics:     metrics,
	}
}

// Middleware limits every request.
func (rl *RateLimiter) Middleware() fiber.Handler {
	return rl.handler(nil)
}

// MiddlewareFor limits only requests for which match returns true.
func (rl *RateLimiter) MiddlewareFor(match func(c *fiber.Ctx) bool) fiber.Handler {
	return rl.handler(match)
}

func (rl *RateLimiter) handler(match func(c *fiber.Ctx) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rl.redis == nil || (match != nil && !match(c)) {
			return c.Next()
		}

		identifier := c.IP()
		if subject, ok := c.Locals("subject").(string); ok && subject != "" {
			identifier = "user:" + subject
		}

		allowed, remaining, resetTime, err := rl.checkLimit(c.UserContext(), identifier)
		if err != nil {
			logger.Error(c.UserContext()).
				Err(err).
				Str("limiter", rl.name).
				Str("identifier", identifier).
				Msg("Rate limiter error")
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.maxRequests))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			logger.Warn(c.UserContext()).
				Str("limiter", rl.name).
				Str("identifier", identifier).
				Int("limit", rl.maxRequests).
				Msg("Rate limit exceeded")
			if rl.metrics != nil {
				rl.metrics.rateLimited.WithLabelValues(rl.name).Inc()
			}

			retryAfter := time.Until(resetTime).Round(time.Second)
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(retryAfter.Seconds())))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success":     false,
				"error":       "Rate limit exceeded",
				"message":     fmt.Sprintf("Too many requests. Try again in %v", retryAfter),
				"retry_after": retryAfter.Seconds(),
			})
		}

		return c.Next()
	}
}

func (rl *RateLimiter) checkLimit(ctx context.Context, identifier string) (bool, int, time.Time, error) {
	key := fmt.Sprintf("ratelimit:%s:%s", rl.name, identifier)
	now := time.Now()
	windowStart := now.Add(-rl.window)

	pipe := rl.redis.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	countCmd := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: now.UnixNano(),
	})
	pipe.Expire(ctx, key, rl.window+time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, err
	}

	count := countCmd.Val()
	remaining := rl.maxRequests - int(count) - 1
	if remaining < 0 {
		remaining = 0
	}

	return count < int64(rl.maxRequests), remaining, now.Add(rl.window), nil
}

// GlobalRateLimiter limits every client across all routes.
func GlobalRateLimiter(redisClient *redis.Client, limit int, window time.Duration, metrics *Metrics) fiber.Handler {
	return NewRateLimiter(redisClient, "global", limit, window, metrics).Middleware()
}

// llmPaths are the POST endpoints that may call the language model.
var llmPaths = map[string]bool{
	"/api/recommendations":     true,
	"/api/facial-analysis":     true,
	"/api/ingredient-conflict": true,
}

// IsLLMRequest reports whether the request may reach the language model.
func IsLLMRequest(c *fiber.Ctx) bool {
	return c.Method() == fiber.MethodPost && llmPaths[c.Path()]
}

// LLMRateLimiter applies a stricter budget to the LLM-backed endpoints.
func LLMRateLimiter(redisClient *redis.Client, limit int, window time.Duration, metrics *Metrics) fiber.Handler {
	return NewRateLimiter(redisClient, "llm", limit, window, metrics).MiddlewareFor(IsLLMRequest)
}
