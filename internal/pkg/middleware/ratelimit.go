package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	redisstore "github.com/gofiber/storage/redis"

	"github.com/ManuelReschke/PayFox/internal/pkg/cache"
	"github.com/ManuelReschke/PayFox/internal/pkg/config"
)

// NewRateLimitStorage stores limiter counters in a separate Redis database
// so they are shared across instances.
func NewRateLimitStorage(cfg config.CacheConfig) fiber.Storage {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		port = 6379
	}
	return redisstore.New(redisstore.Config{
		Host:     cfg.Host,
		Port:     port,
		Password: cfg.Password,
		Database: cache.DBRateLimit,
		Reset:    false,
	})
}

// RateLimit allows max requests per client IP and window. A nil storage
// keeps the counters in memory.
func RateLimit(name string, max int, window time.Duration, storage fiber.Storage) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		Storage:    storage,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return "ratelimit:" + name + ":" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests, please try again later"})
		},
	})
}
