package config

import (
	"testing"
	"time"

	"github.com/tair/cosmetics-recommender/pkg/config"
)

func TestFromConfig(t *testing.T) {
	cfg := &config.Config{
		HTTP: config.HTTPConfig{Port: "8000"},
		Gateway: config.GatewayConfig{
			ProductServiceURLs:        []string{"http://product:8081"},
			RecommendationServiceURLs: []string{"http://rec:8001"},
			PaymentServiceURLs:        []string{"http://payment-a:8083", "http://payment-b:8083"},
			UpstreamTimeout:           5 * time.Second,
		},
	}

	gw := FromConfig(cfg)

	tests := []struct {
		name        string
		instances   int
		healthCheck string
	}{
		{ProductService, 1, "/health"},
		{RecommendationService, 1, "/api/health"},
		{PaymentService, 2, "/health"},
	}
	for _, tt := range tests {
		svc, ok := gw.Services[tt.name]
		if !ok {
			t.Fatalf("service %q missing", tt.name)
		}
		if len(svc.Instances) != tt.instances || svc.HealthCheck != tt.healthCheck || svc.Timeout != 5*time.Second {
			t.Errorf("%s = %+v", tt.name, svc)
		}
	}
}
