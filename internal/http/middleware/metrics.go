package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	infraPrometheus "github.com/sifan077/shorty/internal/infra/prometheus"
)

// Metrics records request latency labelled by the matched route pattern,
// not the raw path, to keep label cardinality bounded.
func Metrics(m *infraPrometheus.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		m.ObserveRequest(c.Method(), c.Route().Path, status, time.Since(start))
		return err
	}
}
