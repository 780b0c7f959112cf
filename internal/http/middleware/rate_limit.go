package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitStore is the part of *redis.Client the limiter needs.
type RateLimitStore interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
	KeyPrefix   string
}

// RateLimit counts requests per client IP in fixed windows stored in Redis.
// It fails open when Redis is unavailable.
func RateLimit(store RateLimitStore, cfg RateLimitConfig, logger *zap.Logger) fiber.Handler {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "shorty:ratelimit"
	}

	return func(c *fiber.Ctx) error {
		ctx := userContext(c)
		key := cfg.KeyPrefix + ":" + c.IP()

		count, err := store.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("rate limit redis error", zap.Error(err))
			return c.Next()
		}

		// First hit opens the window.
		if count == 1 {
			if err := store.Expire(ctx, key, cfg.Window).Err(); err != nil {
				logger.Warn("rate limit expire failed", zap.Error(err))
			}
		}

		remaining := cfg.MaxRequests - int(count)
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > int64(cfg.MaxRequests) {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(cfg.Window.Seconds())))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Rate limit exceeded",
			})
		}

		return c.Next()
	}
}

func userContext(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}
