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
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/tair/cosmetics-recommender/docs/product"
	"github.com/tair/cosmetics-recommender/internal/product"
	httpDelivery "github.com/tair/cosmetics-recommender/internal/product/delivery/http"
	"github.com/tair/cosmetics-recommender/internal/product/repository"
	"github.com/tair/cosmetics-recommender/internal/product/usecase/command"
	"github.com/tair/cosmetics-recommender/kafka"
	"github.com/tair/cosmetics-recommender/pkg/auth"
	"github.com/tair/cosmetics-recommender/pkg/config"
	"github.com/tair/cosmetics-recommender/pkg/database"
	"github.com/tair/cosmetics-recommender/pkg/logger"
	"github.com/tair/cosmetics-recommender/pkg/middleware"
	"github.com/tair/cosmetics-recommender/pkg/tracing"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("product-service", "8081")
	if err != nil {
		logger.Init("product-service", "development")
		logger.Logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(cfg.Service.Name, cfg.Service.Environment)
	logger.SetLevel(cfg.Service.LogLevel)

	logger.Logger.Info().
		Str("version", cfg.Service.Version).
		Str("log_level", cfg.Service.LogLevel).
		Msg("Starting product service")

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

	sqlDB, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer sqlDB.Close()

	db, err := database.NewGormConnection(sqlDB)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize gorm")
	}

	if err := repository.NewGormProductRepository(db).AutoMigrate(); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
	}
	logger.Logger.Info().Msg("Database initialized successfully")

	var signer *auth.Signer
	if cfg.Auth.JWTSecret != "" {
		signer, err = auth.NewSigner(cfg.Auth.JWTSecret, auth.DefaultIssuer)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to create token signer")
		}
	} else {
		logger.Logger.Warn().Msg("JWT_SECRET not set, catalog writes are not verified by this service")
	}

	var publisher command.EventPublisher = kafka.NopPublisher{}
	if cfg.Kafka.Enabled {
		kafkaPublisher, err := kafka.NewPublisher(cfg.Kafka.Brokers)
		if err != nil {
			logger.Logger.Warn().Err(err).Msg("Kafka unavailable, product change events disabled")
		} else {
			defer kafkaPublisher.Close()
			publisher = kafkaPublisher
		}
	}

	handler, err := product.InitializeHTTPHandler(db, publisher, signer, prometheus.DefaultRegisterer)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize handler")
	}
	handler.RefreshProductsMetric(context.Background())

	router := mux.NewRouter()
	middleware.Register(router, middleware.DefaultConfig(cfg.Service.Name, cfg.HTTP.RequestTimeout, cfg.HTTP.CORSOrigins))
	handler.RegisterRoutes(router)
	handler.RegisterHealthCheck(router, sqlDB)
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
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}
}
