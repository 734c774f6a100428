package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimiter creates the general API rate limiting middleware.
func RateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        100,             // 100 requests
		Expiration: 1 * time.Minute, // per minute
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "rate limit exceeded",
				"message":     "too many requests, try again in a minute",
				"retry_after": 60,
			})
		},
	})
}

// StrictRateLimiter creates a stricter limiter for auth endpoints.
func StrictRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        10,              // only 10 requests
		Expiration: 1 * time.Minute, // per minute
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "rate limit exceeded",
				"message":     "too many authentication attempts, try again in a minute",
				"retry_after": 60,
			})
		},
	})
}

// ReportRateLimiter bounds the driver location-report path. Devices report
// every few seconds; anything past 2 per second per IP is a misbehaving
// client.
func ReportRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        120,             // 120 reports
		Expiration: 1 * time.Minute, // per minute
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "rate limit exceeded",
				"message":     "too many location reports, slow down",
				"retry_after": 60,
			})
		},
	})
}
