package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/cosmetics-recommender/pkg/logger"
)

// StructuredLoggingMiddleware logs one line per request once the response is
// known, at a level derived from the status code.
func StructuredLoggingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		ctx := c.UserContext()
		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}

		var event *zerolog.Event
		switch {
		case err != nil || status >= fiber.StatusInternalServerError:
			event = logger.Error(ctx).Err(err)
		case status >= fiber.StatusBadRequest:
			event = logger.Warn(ctx)
		default:
			event = logger.Info(ctx)
		}

		if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
			event = event.Str("trace_id", span.SpanContext().TraceID().String())
		}
		if upstream, ok := c.Locals(UpstreamKey).(string); ok {
			event = event.Str("upstream", upstream)
		}
		if cache := c.GetRespHeader("X-Cache"); cache != "" {
			event = event.Str("cache", cache)
		}

		duration := time.Since(start)
		event.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("ip", c.IP()).
			Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
			Int("status", status).
			Int64("duration_ms", duration.Milliseconds()).
			Int("response_size", len(c.Response().Body())).
			Msg("Gateway request completed")

		return err
	}
}
