package emulator

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// NewApp builds the emulator's Fiber application with all middleware
// and routes configured.
func NewApp(cfg *Config, store Store, log *logrus.Entry) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "featherd",
		ReadTimeout:           cfg.RequestTimeout,
		WriteTimeout:          cfg.RequestTimeout,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(RequestLogger(log))
	app.Use(MetricsMiddleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))

	handlers := NewHandlers(store, log)

	// Secret endpoints, bearer-authenticated when an API key is set.
	v1 := app.Group("/v1", RequireBearerToken(cfg.APIKey))
	v1.Get("/secrets", handlers.ListSecrets)
	v1.Get("/secrets/:name", handlers.GetSecret)
	v1.Put("/secrets/:name", handlers.SetSecret)
	v1.Delete("/secrets/:name", handlers.DeleteSecret)

	// Health and metrics stay unauthenticated for probes and scrapers.
	app.Get("/health", handlers.Health)
	app.Get(cfg.MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "featherd",
			"version": "1.0.0",
			"status":  "running",
			"endpoints": fiber.Map{
				"secrets": fiber.Map{
					"set":    "PUT /v1/secrets/:name",
					"get":    "GET /v1/secrets/:name",
					"delete": "DELETE /v1/secrets/:name",
					"list":   "GET /v1/secrets",
				},
				"health":  "GET /health",
				"metrics": "GET " + cfg.MetricsPath,
			},
		})
	})

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(errorBody{
			Error: "endpoint not found",
			Code:  "NOT_FOUND",
		})
	})

	return app
}
