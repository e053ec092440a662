package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	redisstorage "github.com/gofiber/storage/redis"

	"github.com/riceboxdev/Velvet/internal/pkg/env"
)

// SignupRateLimiter throttles the public signup endpoint per client IP.
// Counters live in redis so all instances share one window.
func SignupRateLimiter() fiber.Handler {
	max, _ := strconv.Atoi(env.GetEnv("SIGNUP_RATE_LIMIT", "30"))
	if max <= 0 {
		max = 30
	}

	port, err := strconv.Atoi(env.GetEnv("CACHE_PORT", "6379"))
	if err != nil {
		port = 6379
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + ":" + c.Path()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "rate_limited",
				"message": "Too many signup attempts, slow down",
			})
		},
		Storage: redisstorage.New(redisstorage.Config{
			Host:     env.GetEnv("CACHE_HOST", "localhost"),
			Port:     port,
			Password: env.GetEnv("CACHE_PASSWORD", ""),
			Database: 1,
			Reset:    false,
		}),
	})
}
