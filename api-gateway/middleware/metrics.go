package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the gateway collectors.
type Metrics struct {
	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	cacheResults   *prometheus.CounterVec
	rateLimited    *prometheus.CounterVec
	circuitState   *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_requests_total",
				Help: "Total number of requests handled by the gateway",
			},
			[]string{"method", "upstream", "status"},
		),
		requestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_request_duration_seconds",
				Help:    "Duration of gateway requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "upstream"},
		),
		cacheResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_cache_results_total",
				Help: "Response cache lookups by result (hit, miss)",
			},
			[]string{"result"},
		),
		rateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_rate_limited_total",
				Help: "Requests rejected by a rate limiter",
			},
			[]string{"limiter"},
		),
		circuitState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gateway_circuit_state",
				Help: "Upstream circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"upstream"},
		),
	}

	reg.MustRegister(m.requestCounter, m.requestLatency, m.cacheResults, m.rateLimited, m.circuitState)
	return m
}

// UpstreamKey is the fiber local naming the upstream a route proxies to.
const UpstreamKey = "upstream"

// MetricsMiddleware records every request, labelled with the upstream the
// route set in UpstreamKey ("gateway" for local routes).
func MetricsMiddleware(m *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		upstream, _ := c.Locals(UpstreamKey).(string)
		if upstream == "" {
			upstream = "gateway"
		}
		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}

		m.requestCounter.WithLabelValues(c.Method(), upstream, strconv.Itoa(status)).Inc()
		m.requestLatency.WithLabelValues(c.Method(), upstream).Observe(time.Since(start).Seconds())
		return err
	}
}
