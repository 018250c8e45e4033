package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/complementos-api/internal/observability/metrics"
)

// RequestLogger registra cada petición con zerolog y la cuenta en Prometheus
// por método, ruta (patrón, no path) y status.
func RequestLogger(log zerolog.Logger, m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := c.Route().Path
		m.HTTPRequest(c.Method(), route, status)

		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Str("route", route).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("petición HTTP")
		return err
	}
}
