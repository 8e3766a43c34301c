package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tair/cosmetics-recommender/api-gateway/config"
)

func statusServer(t *testing.T, path string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckService(t *testing.T) {
	up := statusServer(t, "/api/health", http.StatusOK)
	down := statusServer(t, "/api/health", http.StatusServiceUnavailable)

	tests := []struct {
		name      string
		instances []string
		want      string
	}{
		{name: "all healthy", instances: []string{up.URL, up.URL + "/"}, want: StatusHealthy},
		{name: "one down", instances: []string{up.URL, down.URL}, want: StatusDegraded},
		{name: "all down", instances: []string{down.URL, "http://127.0.0.1:1"}, want: StatusUnhealthy},
		{name: "no instances", want: StatusUnhealthy},
	}

	h := NewHealthChecker(&config.GatewayConfig{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := config.ServiceConfig{Instances: tt.instances, HealthCheck: "/api/health"}
			got := h.CheckService(context.Background(), config.RecommendationService, svc)
			if got.Status != tt.want {
				t.Errorf("Status = %q, want %q (%+v)", got.Status, tt.want, got.Instances)
			}
			if len(got.Instances) != len(tt.instances) {
				t.Errorf("len(Instances) = %d, want %d", len(got.Instances), len(tt.instances))
			}
		})
	}
}

func TestCheckAllServices(t *testing.T) {
	products := statusServer(t, "/health", http.StatusOK)
	recs := statusServer(t, "/api/health", http.StatusOK)

	cfg := &config.GatewayConfig{
		Services: map[string]config.ServiceConfig{
			config.ProductService:        {Instances: []string{products.URL}, HealthCheck: "/health"},
			config.RecommendationService: {Instances: []string{recs.URL}, HealthCheck: "/api/health"},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	got := NewHealthChecker(cfg).CheckAllServices(ctx)
	if got.Status != StatusHealthy {
		t.Fatalf("Status = %q, want healthy: %+v", got.Status, got.Services)
	}

	cfg.Services[config.RecommendationService] = config.ServiceConfig{Instances: []string{"http://127.0.0.1:1"}, HealthCheck: "/api/health"}
	got = NewHealthChecker(cfg).CheckAllServices(ctx)
	if got.Status != StatusDegraded {
		t.Errorf("Status = %q, want degraded", got.Status)
	}
	if got.Services[config.RecommendationService].Instances[0].Error == "" {
		t.Error("expected an error for the unreachable instance")
	}
}
