package middleware

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Recovery turns a panicking handler into a 500 shaped like the route's
// normal errors: JSON under /api, plain text elsewhere.
func Recovery(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			logger.Error("panic recovered",
				zap.Error(fmt.Errorf("panic: %v", r)),
				zap.ByteString("stack", debug.Stack()),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("request_id", GetRequestID(c)),
			)

			c.Status(fiber.StatusInternalServerError)
			if strings.HasPrefix(c.Path(), "/api/") {
				err = c.JSON(fiber.Map{"error": "Server Error"})
				return
			}
			err = c.SendString("Server Error")
		}()

		return c.Next()
	}
}
