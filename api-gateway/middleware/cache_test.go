package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func doRequest(t *testing.T, app *fiber.App, method, path string) (*http.Response, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, path, nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func TestCacheMiddleware(t *testing.T) {
	_, client := newRedis(t)
	metrics := NewMetrics(prometheus.NewRegistry())

	calls := 0
	app := fiber.New()
	app.Use(CacheMiddleware(client, DefaultCacheConfig(time.Minute), metrics))
	app.Get("/api/products", func(c *fiber.Ctx) error {
		calls++
		return c.JSON(fiber.Map{"call": calls})
	})
	app.Get("/api/products/missing", func(c *fiber.Ctx) error {
		calls++
		return c.SendStatus(fiber.StatusNotFound)
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		calls++
		return c.SendString("ok")
	})

	resp, first := doRequest(t, app, http.MethodGet, "/api/products?category=serum")
	if resp.Header.Get("X-Cache") != "MISS" {
		t.Errorf("first X-Cache = %q, want MISS", resp.Header.Get("X-Cache"))
	}
	resp, second := doRequest(t, app, http.MethodGet, "/api/products?category=serum")
	if resp.Header.Get("X-Cache") != "HIT" {
		t.Errorf("second X-Cache = %q, want HIT", resp.Header.Get("X-Cache"))
	}
	if first != second || calls != 1 {
		t.Errorf("cached body %q vs %q after %d calls", first, second, calls)
	}

	doRequest(t, app, http.MethodGet, "/api/products?category=toner")
	if calls != 2 {
		t.Errorf("different query should miss, calls = %d", calls)
	}

	doRequest(t, app, http.MethodGet, "/api/products/missing")
	doRequest(t, app, http.MethodGet, "/api/products/missing")
	if calls != 4 {
		t.Errorf("404 must not be cached, calls = %d", calls)
	}

	doRequest(t, app, http.MethodGet, "/health")
	doRequest(t, app, http.MethodGet, "/health")
	if calls != 6 {
		t.Errorf("uncached prefix served from cache, calls = %d", calls)
	}

	if got := testutil.ToFloat64(metrics.cacheResults.WithLabelValues("hit")); got != 1 {
		t.Errorf("cache hits = %v, want 1", got)
	}
}

func TestCacheMiddlewareWithoutRedis(t *testing.T) {
	calls := 0
	app := fiber.New()
	app.Use(CacheMiddleware(nil, DefaultCacheConfig(0), nil))
	app.Get("/api/products", func(c *fiber.Ctx) error {
		calls++
		return c.SendString("ok")
	})

	doRequest(t, app, http.MethodGet, "/api/products")
	doRequest(t, app, http.MethodGet, "/api/products")
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestInvalidateOnWrite(t *testing.T) {
	mr, client := newRedis(t)
	mr.Set(CacheKeyPrefix+"a", "1")
	mr.Set(CacheKeyPrefix+"b", "2")
	mr.Set("ratelimit:global:1.2.3.4", "keep")

	status := fiber.StatusBadRequest
	app := fiber.New()
	app.All("/api/products", InvalidateOnWrite(client), func(c *fiber.Ctx) error {
		return c.SendStatus(status)
	})

	doRequest(t, app, http.MethodPost, "/api/products")
	if !mr.Exists(CacheKeyPrefix + "a") {
		t.Fatal("failed write must not invalidate")
	}

	status = fiber.StatusOK
	doRequest(t, app, http.MethodGet, "/api/products")
	if !mr.Exists(CacheKeyPrefix + "a") {
		t.Fatal("reads must not invalidate")
	}

	status = fiber.StatusCreated
	doRequest(t, app, http.MethodPost, "/api/products")
	for _, key := range mr.Keys() {
		if strings.HasPrefix(key, CacheKeyPrefix) {
			t.Errorf("key %q survived invalidation", key)
		}
	}
	if !mr.Exists("ratelimit:global:1.2.3.4") {
		t.Error("invalidation removed a non-cache key")
	}
}
