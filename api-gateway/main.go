package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	gatewayconfig "github.com/tair/cosmetics-recommender/api-gateway/config"
	"github.com/tair/cosmetics-recommender/api-gateway/middleware"
	"github.com/tair/cosmetics-recommender/api-gateway/proxy"
	"github.com/tair/cosmetics-recommender/api-gateway/routes"
	"github.com/tair/cosmetics-recommender/pkg/auth"
	"github.com/tair/cosmetics-recommender/pkg/config"
	"github.com/tair/cosmetics-recommender/pkg/logger"
	"github.com/tair/cosmetics-recommender/pkg/tracing"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("api-gateway", "8000")
	if err != nil {
		logger.Init("api-gateway", "development")
		logger.Logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(cfg.Service.Name, cfg.Service.Environment)
	logger.SetLevel(cfg.Service.LogLevel)

	gwCfg := gatewayconfig.FromConfig(cfg)
	logger.Logger.Info().
		Str("version", cfg.Service.Version).
		Strs("product_instances", gwCfg.Services[gatewayconfig.ProductService].Instances).
		Strs("recommendation_instances", gwCfg.Services[gatewayconfig.RecommendationService].Instances).
		Strs("payment_instances", gwCfg.Services[gatewayconfig.PaymentService].Instances).
		Msg("Starting API Gateway")

	tp, err := tracing.InitTracer(cfg.Service.Name, cfg.Service.Version, cfg.Tracing)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize tracer")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(ctx, tp); err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
		}
	}()

	redisClient := connectRedis(cfg.Redis)
	if redisClient != nil {
		defer redisClient.Close()
	}

	signer, err := auth.NewSigner(cfg.Auth.JWTSecret, auth.DefaultIssuer)
	if err != nil {
		logger.Logger.Warn().Err(err).Msg("JWT_SECRET not set - catalog writes are rejected")
	}

	metrics := middleware.NewMetrics(prometheus.DefaultRegisterer)
	breakers := middleware.NewCircuitBreakerManager(middleware.DefaultBreakerSettings(), metrics)

	app := fiber.New(fiber.Config{
		AppName:      "Cosmetics API Gateway",
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  30 * time.Second,
		ErrorHandler: customErrorHandler,
	})

	setupMiddleware(app, gwCfg, redisClient, metrics)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	routes.SetupRoutes(app, routes.Dependencies{
		Config:   gwCfg,
		Proxy:    proxy.NewReverseProxy(gwCfg, proxy.DefaultRetryPolicy()),
		Breakers: breakers,
		Signer:   signer,
		Redis:    redisClient,
	})

	go func() {
		addr := fmt.Sprintf(":%s", gwCfg.Port)
		logger.Logger.Info().
			Str("addr", addr).
			Str("metrics_endpoint", "/metrics").
			Msg("API Gateway started")
		if err := app.Listen(addr); err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down API Gateway...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	logger.Logger.Info().Msg("API Gateway stopped")
}

// setupMiddleware installs the global chain. Route-scoped middleware
// (admin guard, circuit breakers) is attached by routes.SetupRoutes.
func setupMiddleware(app *fiber.App, cfg *gatewayconfig.GatewayConfig, redisClient *redis.Client, metrics *middleware.Metrics) {
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.StructuredLoggingMiddleware())
	app.Use(middleware.MetricsMiddleware(metrics))

	allowOrigins := strings.Join(cfg.CORSOrigins, ",")
	if allowOrigins == "" {
		allowOrigins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-Id, traceparent, tracestate",
		AllowCredentials: allowOrigins != "*",
		ExposeHeaders:    "X-Request-Id, X-Trace-Id, X-Cache, X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset",
		MaxAge:           86400,
	}))
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))

	if redisClient != nil {
		app.Use(middleware.GlobalRateLimiter(redisClient, cfg.RateLimit, cfg.RateWindow, metrics))
		app.Use(middleware.LLMRateLimiter(redisClient, cfg.LLMRateLimit, cfg.RateWindow, metrics))
		logger.Logger.Info().
			Int("limit", cfg.RateLimit).
			Int("llm_limit", cfg.LLMRateLimit).
			Dur("window", cfg.RateWindow).
			Msg("Rate limiting enabled")

		cacheConfig := middleware.DefaultCacheConfig(cfg.CacheTTL)
		app.Use(middleware.CacheMiddleware(redisClient, cacheConfig, metrics))
		logger.Logger.Info().
			Dur("ttl", cacheConfig.TTL).
			Strs("paths", cacheConfig.Paths).
			Msg("Response caching enabled")
	} else {
		logger.Logger.Warn().Msg("Rate limiting and caching disabled (Redis not available)")
	}
}

func connectRedis(cfg config.RedisConfig) *redis.Client {
	if !cfg.Enabled {
		return nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Logger.Warn().
			Err(err).
			Str("redis_addr", cfg.Addr).
			Msg("Failed to connect to Redis")
		_ = redisClient.Close()
		return nil
	}

	logger.Logger.Info().Str("redis_addr", cfg.Addr).Msg("Connected to Redis")
	return redisClient
}

// customErrorHandler handles errors globally
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"success":    false,
		"error":      err.Error(),
		"statusCode": code,
		"path":       c.Path(),
		"method":     c.Method(),
		"requestId":  c.GetRespHeader(fiber.HeaderXRequestID),
	})
}
