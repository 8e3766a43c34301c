package health

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tair/cosmetics-recommender/api-gateway/config"
	"github.com/tair/cosmetics-recommender/pkg/logger"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// InstanceHealth is the probe result for one upstream instance.
type InstanceHealth struct {
	URL       string `json:"url"`
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// ServiceHealth aggregates the instances of one upstream. A service is
// healthy while at least one instance answers 200.
type ServiceHealth struct {
	Name      string           `json:"name"`
	Status    string           `json:"status"`
	Instances []InstanceHealth `json:"instances"`
	Timestamp time.Time        `json:"timestamp"`
}

// GatewayHealth represents the overall gateway health
type GatewayHealth struct {
	Gateway  string                   `json:"gateway"`
	Status   string                   `json:"status"`
	Services map[string]ServiceHealth `json:"services"`
	Uptime   float64                  `json:"uptime_seconds"`
}

// HealthChecker checks health of downstream services
type HealthChecker struct {
	config    *config.GatewayConfig
	client    *http.Client
	startTime time.Time
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(cfg *config.GatewayConfig) *HealthChecker {
	return &HealthChecker{
		config:    cfg,
		client:    &http.Client{Timeout: 5 * time.Second},
		startTime: time.Now(),
	}
}

// CheckService probes every instance of svc concurrently.
func (h *HealthChecker) CheckService(ctx context.Context, name string, svc config.ServiceConfig) ServiceHealth {
	result := ServiceHealth{
		Name:      name,
		Instances: make([]InstanceHealth, len(svc.Instances)),
		Timestamp: time.Now(),
	}

	var wg sync.WaitGroup
	for i, instance := range svc.Instances {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result.Instances[i] = h.checkInstance(ctx, instance, svc.HealthCheck)
		}()
	}
	wg.Wait()

	healthy := 0
	for _, inst := range result.Instances {
		if inst.Status == StatusHealthy {
			healthy++
		}
	}
	switch {
	case len(result.Instances) == 0 || healthy == 0:
		result.Status = StatusUnhealthy
	case healthy == len(result.Instances):
		result.Status = StatusHealthy
	default:
		result.Status = StatusDegraded
	}
	return result
}

func (h *HealthChecker) checkInstance(ctx context.Context, instance, path string) InstanceHealth {
	start := time.Now()
	result := InstanceHealth{URL: instance}
	defer func() { result.LatencyMS = time.Since(start).Milliseconds() }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(instance, "/")+path, nil)
	if err != nil {
		result.Status = StatusUnhealthy
		result.Error = fmt.Sprintf("Failed to create request: %v", err)
		return result
	}

	resp, err := h.client.Do(req)
	if err != nil {
		result.Status = StatusUnhealthy
		result.Error = fmt.Sprintf("Failed to reach service: %v", err)
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		result.Status = StatusHealthy
	} else {
		result.Status = StatusUnhealthy
		result.Error = fmt.Sprintf("Unexpected status code: %d", resp.StatusCode)
	}
	return result
}

// CheckAllServices checks health of all downstream services
func (h *HealthChecker) CheckAllServices(ctx context.Context) GatewayHealth {
	services := make(map[string]ServiceHealth, len(h.config.Services))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, svc := range h.config.Services {
		wg.Add(1)
		go func() {
			defer wg.Done()
			health := h.CheckService(ctx, name, svc)

			mu.Lock()
			services[name] = health
			mu.Unlock()

			if health.Status == StatusHealthy {
				logger.Logger.Debug().
					Str("service", name).
					Msg("Service health check")
			} else {
				logger.Logger.Warn().
					Str("service", name).
					Str("status", health.Status).
					Msg("Service health check failed")
			}
		}()
	}
	wg.Wait()

	return GatewayHealth{
		Gateway:  "api-gateway",
		Status:   overallStatus(services),
		Services: services,
		Uptime:   time.Since(h.startTime).Seconds(),
	}
}

func overallStatus(services map[string]ServiceHealth) string {
	healthy, unhealthy := 0, 0
	for _, svc := range services {
		switch svc.Status {
		case StatusHealthy:
			healthy++
		case StatusUnhealthy:
			unhealthy++
		}
	}

	switch {
	case healthy == len(services):
		return StatusHealthy
	case unhealthy == len(services):
		return StatusUnhealthy
	default:
		return StatusDegraded
	}
}

// QuickCheck reports the gateway itself without touching upstreams.
func (h *HealthChecker) QuickCheck() map[string]interface{} {
	return map[string]interface{}{
		"status":    StatusHealthy,
		"gateway":   "api-gateway",
		"uptime":    time.Since(h.startTime).Seconds(),
		"timestamp": time.Now(),
	}
}
