package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/tair/cosmetics-recommender/docs/recommendation"
	"github.com/tair/cosmetics-recommender/internal/recommendation"
	"github.com/tair/cosmetics-recommender/internal/recommendation/client"
	"github.com/tair/cosmetics-recommender/internal/recommendation/delivery/events"
	httpDelivery "github.com/tair/cosmetics-recommender/internal/recommendation/delivery/http"
	"github.com/tair/cosmetics-recommender/kafka"
	"github.com/tair/cosmetics-recommender/pkg/config"
	"github.com/tair/cosmetics-recommender/pkg/logger"
	"github.com/tair/cosmetics-recommender/pkg/middleware"
	"github.com/tair/cosmetics-recommender/pkg/tracing"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("recommendation-service", "8001")
	if err != nil {
		logger.Init("recommendation-service", "development")
		logger.Logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(cfg.Service.Name, cfg.Service.Environment)
	logger.SetLevel(cfg.Service.LogLevel)

	logger.Logger.Info().
		Str("version", cfg.Service.Version).
		Str("product_store", cfg.ProductStore.BaseURL).
		Str("model", cfg.LLM.Model).
		Bool("llm_enabled", cfg.LLM.Enabled()).
		Msg("Starting recommendation service")

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

	productClient := client.NewProductClient(cfg.ProductStore.BaseURL, cfg.ProductStore.Timeout)
	store := client.NewCachedProductStore(productClient, redisClient, cfg.Redis.CandidateTTL)

	if !cfg.LLM.Enabled() {
		logger.Logger.Warn().Msg("GEMINI_API_KEY not set, recommendations use the ranking algorithm only")
	}
	gemini := client.NewGeminiClient(recommendation.ProvideGeminiConfig(cfg), prometheus.DefaultRegisterer)
	images := client.NewImageLoader(cfg.LLM.Timeout)

	handler, err := recommendation.InitializeHTTPHandler(cfg, store, productClient, gemini, images, prometheus.DefaultRegisterer)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize handler")
	}

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	if cfg.Kafka.Enabled {
		consumer, err := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, []string{kafka.TopicProductChanged})
		if err != nil {
			logger.Logger.Warn().Err(err).Msg("Kafka unavailable, catalog cache relies on TTL expiry")
		} else {
			events.NewCatalogInvalidator(store).Register(consumer)
			consumer.Start(consumerCtx)
			defer consumer.Close()
		}
	}

	router := mux.NewRouter()
	middleware.Register(router, middleware.DefaultConfig(cfg.Service.Name, cfg.HTTP.RequestTimeout, cfg.HTTP.CORSOrigins))
	handler.RegisterRoutes(router)
	httpDelivery.RegisterSwaggerDocs(router, httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      middleware.CORS(cfg.HTTP.CORSOrigins, router),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		logger.Logger.Info().
			Str("port", cfg.HTTP.Port).
			Str("metrics_endpoint", "/metrics").
			Str("swagger", "/swagger/index.html").
			Msg("HTTP server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down server...")
	stopConsumer()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}
}

// connectRedis returns nil when the cache is disabled or unreachable; the
// store then reads through to product-service on every request.
func connectRedis(cfg config.RedisConfig) *redis.Client {
	if !cfg.Enabled {
		logger.Logger.Info().Msg("Candidate cache disabled")
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
			Msg("Failed to connect to Redis - candidate cache disabled")
		_ = redisClient.Close()
		return nil
	}

	logger.Logger.Info().
		Str("redis_addr", cfg.Addr).
		Dur("ttl", cfg.CandidateTTL).
		Msg("Connected to Redis for candidate cache")
	return redisClient
}
