package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/apperr"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/models"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/utils"
)

// CookieName holds the session token for browser clients.
const CookieName = "jm_token"

type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*models.User, error)
}

// RequireAuth reads "Authorization: Bearer <token>", falling back to the
// session cookie when no header is sent, and stores the fresh user row in
// locals "currentUser", "userId" and "role".
func RequireAuth(v TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var tokenStr string
		if h := strings.TrimSpace(c.Get(fiber.HeaderAuthorization)); h != "" {
			tok, ok := utils.BearerToken(h)
			if !ok {
				return apperr.New(apperr.Unauthorized, "Cabecera de autorización inválida")
			}
			tokenStr = tok
		} else {
			tokenStr = c.Cookies(CookieName)
		}
		if tokenStr == "" {
			return apperr.New(apperr.Unauthorized, "Token requerido")
		}

		user, err := v.VerifyToken(c.UserContext(), tokenStr)
		if err != nil {
			return err
		}

		c.Locals("currentUser", user)
		c.Locals("userId", user.ID.String())
		c.Locals("role", strings.ToLower(string(user.Role)))
		return c.Next()
	}
}

// CurrentUser returns the user stored by RequireAuth.
func CurrentUser(c *fiber.Ctx) (*models.User, error) {
	u, ok := c.Locals("currentUser").(*models.User)
	if !ok || u == nil || u.ID == uuid.Nil {
		return nil, apperr.New(apperr.Unauthorized, "No autorizado")
	}
	return u, nil
}
