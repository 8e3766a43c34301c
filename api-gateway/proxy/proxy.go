package proxy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tair/cosmetics-recommender/api-gateway/config"
	"github.com/tair/cosmetics-recommender/api-gateway/loadbalancer"
	"github.com/tair/cosmetics-recommender/pkg/logger"
)

// RetryPolicy bounds retries of idempotent requests.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultRetryPolicy makes three attempts with 100ms, 200ms backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.BaseDelay << attempt
	if d > p.MaxDelay || d <= 0 {
		return p.MaxDelay
	}
	return d
}

// ReverseProxy handles proxying requests to backend services
type ReverseProxy struct {
	client        *http.Client
	loadBalancers map[string]*loadbalancer.RoundRobin
	retry         RetryPolicy
}

// NewReverseProxy creates one round-robin balancer per upstream.
func NewReverseProxy(cfg *config.GatewayConfig, retry RetryPolicy) *ReverseProxy {
	loadBalancers := make(map[string]*loadbalancer.RoundRobin, len(cfg.Services))
	timeout := 30 * time.Second
	for name, svc := range cfg.Services {
		loadBalancers[name] = loadbalancer.NewRoundRobin(name, svc.Instances)
		if svc.Timeout > timeout {
			timeout = svc.Timeout
		}
	}

	return &ReverseProxy{
		loadBalancers: loadBalancers,
		retry:         retry,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// ProxyRequest forwards the request to the target service. GET and HEAD are
// retried on transport errors and 502/503/504, each attempt on the next
// instance.
func (p *ReverseProxy) ProxyRequest(c *fiber.Ctx, serviceName string) error {
	lb, ok := p.loadBalancers[serviceName]
	if !ok {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"error":   fmt.Sprintf("Load balancer for '%s' not found", serviceName),
		})
	}

	attempts := 1
	if isIdempotent(c.Method()) && p.retry.Attempts > 1 {
		attempts = p.retry.Attempts
	}

	ctx := c.UserContext()
	var (
		resp *http.Response
		err  error
	)
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if !sleep(ctx, p.retry.delay(attempt-1)) {
				break
			}
		}

		serverURL := lb.Next()
		if serverURL == "" {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"success": false,
				"error":   fmt.Sprintf("No available instances for '%s'", serviceName),
			})
		}

		resp, err = p.forward(ctx, c, serverURL)
		if err == nil && !isRetryableStatus(resp.StatusCode) {
			break
		}
		if attempt == attempts-1 {
			break
		}

		ev := logger.Warn(ctx).Str("service", serviceName).Str("target_url", serverURL).Int("attempt", attempt+1)
		if err != nil {
			ev = ev.Err(err)
		} else {
			ev = ev.Int("status", resp.StatusCode)
			resp.Body.Close()
			resp = nil
		}
		ev.Msg("Upstream attempt failed, retrying")
	}

	if err != nil || resp == nil {
		details := "request cancelled"
		if err != nil {
			details = err.Error()
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to reach backend service",
			"service": serviceName,
			"details": details,
		})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to read response",
		})
	}

	copyResponseHeaders(c, resp)
	c.Status(resp.StatusCode)
	return c.Send(body)
}

func (p *ReverseProxy) forward(ctx context.Context, c *fiber.Ctx, serverURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, c.Method(), targetURL(c, serverURL), bytes.NewReader(c.Body()))
	if err != nil {
		return nil, err
	}
	copyHeaders(c, req)

	logger.Debug(ctx).
		Str("target_url", serverURL).
		Str("path", c.Path()).
		Msg("Forwarding request")
	return p.client.Do(req)
}

// Stats reports every balancer, keyed by upstream.
func (p *ReverseProxy) Stats() map[string]interface{} {
	stats := make(map[string]interface{}, len(p.loadBalancers))
	for name, lb := range p.loadBalancers {
		stats[name] = lb.Stats()
	}
	return stats
}

func targetURL(c *fiber.Ctx, serverURL string) string {
	target := strings.TrimRight(serverURL, "/") + string(c.Request().URI().Path())
	if qs := string(c.Request().URI().QueryString()); qs != "" {
		target += "?" + qs
	}
	return target
}

func copyHeaders(c *fiber.Ctx, req *http.Request) {
	c.Request().Header.VisitAll(func(key, value []byte) {
		switch strings.ToLower(string(key)) {
		case "host", "content-length", "connection":
			return
		}
		req.Header.Set(string(key), string(value))
	})

	req.Header.Set("X-Forwarded-For", c.IP())
	req.Header.Set("X-Forwarded-Proto", c.Protocol())
	req.Header.Set("X-Forwarded-Host", c.Hostname())
}

func copyResponseHeaders(c *fiber.Ctx, resp *http.Response) {
	for key, values := range resp.Header {
		switch strings.ToLower(key) {
		case "content-length", "transfer-encoding", "connection":
			continue
		}
		for _, value := range values {
			c.Set(key, value)
		}
	}
}

func isIdempotent(method string) bool {
	return method == fiber.MethodGet || method == fiber.MethodHead
}

func isRetryableStatus(status int) bool {
	return status == http.StatusBadGateway || status == http.StatusServiceUnavailable || status == http.StatusGatewayTimeout
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
