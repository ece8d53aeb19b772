package emulator

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs each request with structured fields.
func RequestLogger(log *logrus.Entry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		fields := logrus.Fields{
			"method":      c.Method(),
			"path":        c.Path(),
			"status":      c.Response().StatusCode(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  c.Locals("requestid"),
		}
		if err != nil {
			log.WithFields(fields).WithError(err).Warn("request failed")
			return err
		}
		if c.Response().StatusCode() >= 500 {
			log.WithFields(fields).Error("request errored")
		} else {
			log.WithFields(fields).Info("request handled")
		}
		return nil
	}
}

// RequireBearerToken rejects requests that don't carry the configured
// API key as a bearer token. With an empty key it is a pass-through.
func RequireBearerToken(apiKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if apiKey == "" {
			return c.Next()
		}

		auth := c.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token != apiKey {
			authFailures.Inc()
			return c.Status(fiber.StatusUnauthorized).JSON(errorBody{
				Error: "invalid or missing bearer token",
				Code:  "UNAUTHORIZED",
			})
		}

		return c.Next()
	}
}
