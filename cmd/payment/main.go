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

	"github.com/tair/cosmetics-recommender/internal/payment"
	"github.com/tair/cosmetics-recommender/internal/payment/repository"
	"github.com/tair/cosmetics-recommender/pkg/config"
	"github.com/tair/cosmetics-recommender/pkg/database"
	"github.com/tair/cosmetics-recommender/pkg/logger"
	"github.com/tair/cosmetics-recommender/pkg/middleware"
	"github.com/tair/cosmetics-recommender/pkg/tracing"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("payment-service", "8083")
	if err != nil {
		logger.Init("payment-service", "development")
		logger.Logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(cfg.Service.Name, cfg.Service.Environment)
	logger.SetLevel(cfg.Service.LogLevel)

	logger.Logger.Info().
		Str("version", cfg.Service.Version).
		Str("log_level", cfg.Service.LogLevel).
		Msg("Starting payment service")

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

	if err := repository.NewGormTransactionRepository(db).AutoMigrate(); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
	}
	logger.Logger.Info().Msg("Database initialized successfully")

	handler, err := payment.InitializeHTTPHandler(db, prometheus.DefaultRegisterer)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize handler")
	}

	router := mux.NewRouter()
	middleware.Register(router, middleware.DefaultConfig(cfg.Service.Name, cfg.HTTP.RequestTimeout, cfg.HTTP.CORSOrigins))
	handler.RegisterRoutes(router)
	handler.RegisterHealthCheck(router, sqlDB)
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
