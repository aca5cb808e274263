package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/apperr"
)

// ErrorHandler renders every returned error as
// {"success": false, "error": msg, "errors": fields}. Causes are logged, never sent.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var ae *apperr.Error
		var fe *fiber.Error

		switch {
		case errors.As(err, &ae):
			if ae.Kind == apperr.Internal {
				log.Error("request failed",
					zap.String("method", c.Method()),
					zap.String("path", c.Path()),
					zap.Error(ae.Err),
				)
			}
			body := fiber.Map{"success": false, "error": ae.Message}
			if len(ae.Fields) > 0 {
				body["errors"] = ae.Fields
			}
			return c.Status(ae.Kind.Status()).JSON(body)

		case errors.As(err, &fe):
			return c.Status(fe.Code).JSON(fiber.Map{"success": false, "error": fe.Message})

		default:
			log.Error("unhandled error",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "Error interno del servidor",
			})
		}
	}
}

// StatusOf is the status ErrorHandler will answer err with.
func StatusOf(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return apperr.KindOf(err).Status()
}
