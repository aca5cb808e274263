package app

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/config"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/handlers"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/metrics"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/middleware"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/services/auth"
)

// BodyLimit fits a full project update (10 files of 10MB) plus form overhead.
const BodyLimit = 110 << 20

func isHTTPS(baseURL string) bool {
	return strings.HasPrefix(strings.ToLower(baseURL), "https://")
}

// NewServer builds the fiber app with the full middleware chain and routes.
func NewServer(cfg config.Config, log *zap.Logger, m *metrics.Metrics, h *handlers.Set, creds *auth.Credentials, limiter *middleware.RateLimiter) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "estudiantes-freelance",
		ErrorHandler: middleware.ErrorHandler(log),
		BodyLimit:    BodyLimit,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger(log))
	app.Use(m.Middleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	if cfg.CloudinaryURL == "" {
		app.Static("/uploads", cfg.UploadDir)
	}
	app.Get("/metrics", m.Handler())
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "status": "ok"})
	})

	h.Register(app, creds, limiter.Handler())
	return app
}
