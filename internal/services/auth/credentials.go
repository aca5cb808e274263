// Package auth issues and verifies the bearer tokens that identify callers.
package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/apperr"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/models"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/repository"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/utils"
)

type Credentials struct {
	users      repository.UserRepository
	secret     string
	expiresMin int
}

func NewCredentials(users repository.UserRepository, secret string, expiresMin int) *Credentials {
	return &Credentials{users: users, secret: secret, expiresMin: expiresMin}
}

// ExpiresMin is the token lifetime, also used for the session cookie.
func (c *Credentials) ExpiresMin() int { return c.expiresMin }

func (c *Credentials) IssueToken(u *models.User) (string, error) {
	return utils.SignJWT(c.secret, u.ID.String(), u.Email, string(u.Role), c.expiresMin)
}

// VerifyToken checks the token and returns the current user row. Claims
// only establish identity; role and status come from the database.
func (c *Credentials) VerifyToken(ctx context.Context, token string) (*models.User, error) {
	claims, err := utils.ParseJWT(c.secret, token)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unauthorized, "Token inválido o expirado", err)
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unauthorized, "Token inválido o expirado", err)
	}

	u, err := c.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.New(apperr.Unauthorized, "Usuario no encontrado")
	}
	if err != nil {
		return nil, apperr.Internalf(err, "load user %s", id)
	}
	if !u.IsActive {
		return nil, apperr.New(apperr.Unauthorized, "Cuenta inactiva")
	}
	return u, nil
}
