package proxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tair/cosmetics-recommender/api-gateway/config"
)

func newGateway(instances []string, retry RetryPolicy) *fiber.App {
	cfg := &config.GatewayConfig{
		Services: map[string]config.ServiceConfig{
			config.ProductService: {Name: "product-service", Instances: instances, Timeout: time.Second},
		},
	}
	p := NewReverseProxy(cfg, retry)

	app := fiber.New()
	app.All("/api/products*", func(c *fiber.Ctx) error {
		return p.ProxyRequest(c, config.ProductService)
	})
	app.All("/api/unknown", func(c *fiber.Ctx) error {
		return p.ProxyRequest(c, "unknown")
	})
	return app
}

func fastRetry() RetryPolicy {
	return RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

func TestProxyForwardsPathQueryAndHeaders(t *testing.T) {
	var gotURL, gotAuth, gotForwarded string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		gotAuth = r.Header.Get("Authorization")
		gotForwarded = r.Header.Get("X-Forwarded-Proto")
		w.Header().Set("X-Backend", "product")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"success":true}`)
	}))
	defer backend.Close()

	app := newGateway([]string{backend.URL}, fastRetry())
	req := httptest.NewRequest(http.MethodPost, "/api/products?category=serum", strings.NewReader(`{"name":"x"}`))
	req.Header.Set("Authorization", "Bearer abc")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want 201", resp.StatusCode)
	}
	if gotURL != "/api/products?category=serum" {
		t.Errorf("upstream url = %q", gotURL)
	}
	if gotAuth != "Bearer abc" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotForwarded != "http" {
		t.Errorf("X-Forwarded-Proto = %q", gotForwarded)
	}
	if resp.Header.Get("X-Backend") != "product" {
		t.Errorf("response header not copied")
	}
	if body := readBody(t, resp); body != `{"success":true}` {
		t.Errorf("body = %q", body)
	}
}

func TestProxyRetriesIdempotentRequestsOnNextInstance(t *testing.T) {
	var failing, healthy int32
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&failing, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&healthy, 1)
		_, _ = io.WriteString(w, "ok")
	}))
	defer good.Close()

	app := newGateway([]string{bad.URL, good.URL}, fastRetry())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/products", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if atomic.LoadInt32(&failing) != 1 || atomic.LoadInt32(&healthy) != 1 {
		t.Errorf("calls bad=%d good=%d, want 1 and 1", atomic.LoadInt32(&failing), atomic.LoadInt32(&healthy))
	}
}

func TestProxyDoesNotRetryWrites(t *testing.T) {
	var calls int32
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer bad.Close()

	app := newGateway([]string{bad.URL}, fastRetry())

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader("{}")))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want upstream 503", resp.StatusCode)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestProxyGivesUpAfterRetries(t *testing.T) {
	var calls int32
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()

	app := newGateway([]string{bad.URL}, fastRetry())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/products/1", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
}

func TestProxyErrors(t *testing.T) {
	tests := []struct {
		name      string
		instances []string
		path      string
		wantBody  string
	}{
		{name: "no instances", path: "/api/products", wantBody: "No available instances for 'product'"},
		{name: "unknown upstream", instances: []string{"http://127.0.0.1:1"}, path: "/api/unknown", wantBody: "Load balancer for 'unknown' not found"},
		{name: "unreachable", instances: []string{"http://127.0.0.1:1"}, path: "/api/products", wantBody: "Failed to reach backend service"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newGateway(tt.instances, RetryPolicy{Attempts: 1})
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			if resp.StatusCode != http.StatusBadGateway {
				t.Errorf("status = %d, want 502", resp.StatusCode)
			}
			if body := readBody(t, resp); !strings.Contains(body, tt.wantBody) {
				t.Errorf("body = %s, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestRetryDelay(t *testing.T) {
	p := RetryPolicy{BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond}
	for attempt, w := range want {
		if got := p.delay(attempt); got != w {
			t.Errorf("delay(%d) = %v, want %v", attempt, got, w)
		}
	}
}
