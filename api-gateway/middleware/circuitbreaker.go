package middleware

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tair/cosmetics-recommender/pkg/logger"
)

var errUpstreamFailure = errors.New("upstream server error")

// BreakerSettings configures every upstream breaker.
type BreakerSettings struct {
	MaxFailures      uint32
	Timeout          time.Duration
	HalfOpenRequests uint32
}

// DefaultBreakerSettings opens after 5 consecutive failures and probes again
// after 30s.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{MaxFailures: 5, Timeout: 30 * time.Second, HalfOpenRequests: 3}
}

// CircuitBreakerManager owns one breaker per upstream.
type CircuitBreakerManager struct {
	settings BreakerSettings
	metrics  *Metrics
	breakers map[string]*gobreaker.CircuitBreaker[int]
	mu       sync.Mutex
}

// NewCircuitBreakerManager creates a new manager. metrics may be nil.
func NewCircuitBreakerManager(settings BreakerSettings, metrics *Metrics) *CircuitBreakerManager {
	return &CircuitBreakerManager{
		settings: settings,
		metrics:  metrics,
		breakers: make(map[string]*gobreaker.CircuitBreaker[int]),
	}
}

// GetOrCreate gets or creates a circuit breaker for a service
func (m *CircuitBreakerManager) GetOrCreate(service string) *gobreaker.CircuitBreaker[int] {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cb, ok := m.breakers[service]; ok {
		return cb
	}

	maxFailures := m.settings.MaxFailures
	cb := gobreaker.NewCircuitBreaker[int](gobreaker.Settings{
		Name:        service,
		MaxRequests: m.settings.HalfOpenRequests,
		Timeout:     m.settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Logger.Warn().
				Str("upstream", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
			if m.metrics != nil {
				m.metrics.circuitState.WithLabelValues(name).Set(stateValue(to))
			}
		},
	})
	m.breakers[service] = cb
	if m.metrics != nil {
		m.metrics.circuitState.WithLabelValues(service).Set(0)
	}

	logger.Logger.Info().
		Str("upstream", service).
		Uint32("max_failures", maxFailures).
		Dur("timeout", m.settings.Timeout).
		Msg("Circuit breaker created")
	return cb
}

// Stats reports state and counts per upstream.
func (m *CircuitBreakerManager) Stats() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := make(map[string]interface{}, len(m.breakers))
	for name, cb := range m.breakers {
		counts := cb.Counts()
		stats[name] = map[string]interface{}{
			"state":                cb.State().String(),
			"requests":             counts.Requests,
			"consecutive_failures": counts.ConsecutiveFailures,
			"total_failures":       counts.TotalFailures,
		}
	}
	return stats
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// CircuitBreaker guards the rest of the chain for one upstream. A 5xx
// response or a non-fiber error counts as a failure; client errors do not.
func CircuitBreaker(manager *CircuitBreakerManager, service string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cb := manager.GetOrCreate(service)

		var handlerErr error
		_, err := cb.Execute(func() (int, error) {
			handlerErr = c.Next()
			status := c.Response().StatusCode()
			if handlerErr != nil {
				var fe *fiber.Error
				if !errors.As(handlerErr, &fe) {
					return status, handlerErr
				}
				status = fe.Code
			}
			if status >= fiber.StatusInternalServerError {
				return status, fmt.Errorf("%w: %d", errUpstreamFailure, status)
			}
			return status, nil
		})

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			logger.Warn(c.UserContext()).
				Str("upstream", service).
				Str("path", c.Path()).
				Msg("Circuit breaker is open - request blocked")

			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"success":     false,
				"error":       "Service temporarily unavailable",
				"service":     service,
				"retry_after": int(manager.settings.Timeout.Seconds()),
			})
		}
		return handlerErr
	}
}
