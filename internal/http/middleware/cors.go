package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CORS lets the browser client call the API from another origin.
// allowOrigins is "*" or a comma-separated list of exact origins.
func CORS(allowOrigins string) fiber.Handler {
	allowAll := strings.TrimSpace(allowOrigins) == "*"
	allowed := make(map[string]struct{})
	for _, o := range strings.Split(allowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)
		if origin == "" {
			return c.Next()
		}

		if allowAll {
			c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
		} else if _, ok := allowed[origin]; ok {
			c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
			c.Vary(fiber.HeaderOrigin)
		} else {
			return c.Next()
		}

		if c.Method() != fiber.MethodOptions {
			return c.Next()
		}

		c.Set(fiber.HeaderAccessControlAllowMethods, "GET, POST, OPTIONS")
		c.Set(fiber.HeaderAccessControlAllowHeaders, "Origin, Content-Type, Accept")
		c.Set(fiber.HeaderAccessControlMaxAge, "86400")
		return c.SendStatus(fiber.StatusNoContent)
	}
}
