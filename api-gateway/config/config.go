package config

import (
	"time"

	"github.com/tair/cosmetics-recommender/pkg/config"
)

// Upstream names used by routes, breakers and health checks.
const (
	ProductService        = "product"
	RecommendationService = "recommendation"
	PaymentService        = "payment"
)

// ServiceConfig holds configuration for a backend service
type ServiceConfig struct {
	Name        string
	Instances   []string
	Timeout     time.Duration
	HealthCheck string
}

// GatewayConfig holds the main gateway configuration
type GatewayConfig struct {
	Port         string
	Services     map[string]ServiceConfig
	CacheTTL     time.Duration
	RateLimit    int
	LLMRateLimit int
	RateWindow   time.Duration
	CORSOrigins  []string
}

// FromConfig derives the gateway view of the shared configuration.
func FromConfig(cfg *config.Config) *GatewayConfig {
	return &GatewayConfig{
		Port: cfg.HTTP.Port,
		Services: map[string]ServiceConfig{
			ProductService: {
				Name:        "product-service",
				Instances:   cfg.Gateway.ProductServiceURLs,
				Timeout:     cfg.Gateway.UpstreamTimeout,
				HealthCheck: "/health",
			},
			RecommendationService: {
				Name:        "recommendation-service",
				Instances:   cfg.Gateway.RecommendationServiceURLs,
				Timeout:     cfg.Gateway.UpstreamTimeout,
				HealthCheck: "/api/health",
			},
			PaymentService: {
				Name:        "payment-service",
				Instances:   cfg.Gateway.PaymentServiceURLs,
				Timeout:     cfg.Gateway.UpstreamTimeout,
				HealthCheck: "/health",
			},
		},
		CacheTTL:     cfg.Gateway.CacheTTL,
		RateLimit:    cfg.Gateway.RateLimit,
		LLMRateLimit: cfg.Gateway.LLMRateLimit,
		RateWindow:   cfg.Gateway.RateWindow,
		CORSOrigins:  cfg.HTTP.CORSOrigins,
	}
}
