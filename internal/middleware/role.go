package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/apperr"
)

// RequireRoles must run after RequireAuth.
func RequireRoles(allowed ...string) fiber.Handler {
	allowedSet := map[string]bool{}
	for _, r := range allowed {
		allowedSet[strings.ToLower(r)] = true
	}

	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("role").(string)
		if !ok || role == "" {
			return apperr.New(apperr.Unauthorized, "No autorizado")
		}
		if !allowedSet[role] {
			return apperr.New(apperr.Forbidden, "No tienes permiso para esta acción")
		}
		return c.Next()
	}
}
