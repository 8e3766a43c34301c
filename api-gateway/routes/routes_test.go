package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tair/cosmetics-recommender/api-gateway/config"
	"github.com/tair/cosmetics-recommender/api-gateway/proxy"
	"github.com/tair/cosmetics-recommender/pkg/auth"
)

type upstream struct {
	*httptest.Server
	mu    sync.Mutex
	paths []string
}

func (u *upstream) seen() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.paths...)
}

func newUpstream(t *testing.T, name string) *upstream {
	t.Helper()
	u := &upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.paths = append(u.paths, r.Method+" "+r.URL.Path)
		u.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"from":"`+name+`"}`)
	}))
	t.Cleanup(u.Close)
	return u
}

func newApp(t *testing.T, products, recs, payments *upstream, signer *auth.Signer) *fiber.App {
	t.Helper()
	cfg := &config.GatewayConfig{
		Services: map[string]config.ServiceConfig{
			config.ProductService:        {Instances: []string{products.URL}, Timeout: time.Second, HealthCheck: "/health"},
			config.RecommendationService: {Instances: []string{recs.URL}, Timeout: time.Second, HealthCheck: "/api/health"},
			config.PaymentService:        {Instances: []string{payments.URL}, Timeout: time.Second, HealthCheck: "/health"},
		},
	}
	app := fiber.New()
	SetupRoutes(app, Dependencies{
		Config: cfg,
		Proxy:  proxy.NewReverseProxy(cfg, proxy.RetryPolicy{Attempts: 1}),
		Signer: signer,
	})
	return app
}

func TestRoutesForwardToUpstreams(t *testing.T) {
	products := newUpstream(t, "product")
	recs := newUpstream(t, "recommendation")
	payments := newUpstream(t, "payment")
	app := newApp(t, products, recs, payments, nil)

	tests := []struct {
		method string
		path   string
		want   string
	}{
		{http.MethodGet, "/api/products", "product"},
		{http.MethodGet, "/api/products/7", "product"},
		{http.MethodPost, "/api/recommendations", "recommendation"},
		{http.MethodGet, "/api/recommendations/quick", "recommendation"},
		{http.MethodPost, "/api/facial-analysis", "recommendation"},
		{http.MethodPost, "/api/ingredient-conflict", "recommendation"},
		{http.MethodPost, "/api/payment/transaction", "payment"},
		{http.MethodGet, "/api/payment/transaction/5", "payment"},
		{http.MethodGet, "/api/payment/accounts", "payment"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(tt.method, tt.path, strings.NewReader("{}")))
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), tt.want) {
				t.Errorf("status = %d body = %s, want %s", resp.StatusCode, body, tt.want)
			}
		})
	}

	if seen := products.seen(); len(seen) != 2 || seen[1] != "GET /api/products/7" {
		t.Errorf("product upstream saw %v", seen)
	}
	if seen := payments.seen(); len(seen) != 3 || seen[0] != "POST /api/payment/transaction" {
		t.Errorf("payment upstream saw %v", seen)
	}
}

func TestProductWritesRequireAdmin(t *testing.T) {
	products := newUpstream(t, "product")
	recs := newUpstream(t, "recommendation")

	signer, err := auth.NewSigner("routes-secret", auth.DefaultIssuer)
	if err != nil {
		t.Fatalf("NewSigner() error = %v", err)
	}
	token, err := signer.GenerateToken("ops", auth.RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	app := newApp(t, products, recs, newUpstream(t, "payment"), signer)

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/products/3", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("anonymous delete status = %d, want 401", resp.StatusCode)
	}
	if seen := products.seen(); len(seen) != 0 {
		t.Fatalf("rejected write reached upstream: %v", seen)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/products/3", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("admin delete status = %d, want 200", resp.StatusCode)
	}
	if seen := products.seen(); len(seen) != 1 || seen[0] != "DELETE /api/products/3" {
		t.Errorf("product upstream saw %v", seen)
	}
}

func TestGatewayEndpoints(t *testing.T) {
	products := newUpstream(t, "product")
	recs := newUpstream(t, "recommendation")
	payments := newUpstream(t, "payment")
	app := newApp(t, products, recs, payments, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	var overview struct {
		Routes []RouteDefinition `json:"routes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&overview); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(overview.Routes) != len(Routes) {
		t.Errorf("routes = %d, want %d", len(overview.Routes), len(Routes))
	}

	for _, path := range []string{"/health", "/health/live", "/health/ready", "/gateway/stats"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), 5000)
		if err != nil {
			t.Fatalf("%s: app.Test() error = %v", path, err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, resp.StatusCode)
		}
	}
}
