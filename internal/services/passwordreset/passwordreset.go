// Package passwordreset implements the emailed six digit code flow.
package passwordreset

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/apperr"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/mailer"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/metrics"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/models"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/repository"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/utils"
)

const (
	CodeLength = 6
	CodeTTL    = 15 * time.Minute
	// expired codes are kept this long before the purge job removes them
	Retention = 24 * time.Hour

	minPasswordLen = 8
)

type Service struct {
	users   repository.UserRepository
	resets  repository.PasswordResetRepository
	mail    mailer.Mailer
	metrics *metrics.Metrics
	log     *zap.Logger
	now     func() time.Time
}

func NewService(users repository.UserRepository, resets repository.PasswordResetRepository, mail mailer.Mailer, m *metrics.Metrics, log *zap.Logger) *Service {
	return &Service{users: users, resets: resets, mail: mail, metrics: m, log: log, now: time.Now}
}

var errBadCode = apperr.New(apperr.Validation, "Código inválido o expirado")

// Request issues a fresh code and mails it. Unknown or inactive emails get
// the same nil result so callers cannot probe for accounts.
func (s *Service) Request(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		errs := apperr.FieldErrors{}
		errs.Add("email", "El correo es obligatorio")
		return apperr.Invalid(errs)
	}

	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !u.IsActive) {
		s.metrics.ResetRequested("unknown_email")
		return nil
	}
	if err != nil {
		return apperr.Internalf(err, "lookup email")
	}

	code, err := utils.NumericCode(CodeLength)
	if err != nil {
		return apperr.Internalf(err, "generate code")
	}
	rc := &models.PasswordResetCode{
		UserID:    u.ID,
		Code:      code,
		ExpiresAt: s.now().Add(CodeTTL),
	}
	if err := s.resets.Issue(ctx, rc); err != nil {
		return apperr.Internalf(err, "issue reset code")
	}
	s.metrics.ResetRequested("issued")

	err = s.mail.SendPasswordResetCode(ctx, mailer.PasswordResetEmail{
		To:        u.Email,
		Name:      u.Name,
		Code:      code,
		ExpiresAt: rc.ExpiresAt,
	})
	if err != nil {
		// the code stays valid; the user can request another one
		s.log.Error("send reset code", zap.Error(err), zap.Stringer("user_id", u.ID))
	}
	return nil
}

func (s *Service) lookup(ctx context.Context, email, code string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	code = strings.TrimSpace(code)

	errs := apperr.FieldErrors{}
	if email == "" {
		errs.Add("email", "El correo es obligatorio")
	}
	if len(code) != CodeLength {
		errs.Add("code", "El código debe tener 6 dígitos")
	}
	if err := apperr.Invalid(errs); err != nil {
		return nil, err
	}

	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errBadCode
	}
	if err != nil {
		return nil, apperr.Internalf(err, "lookup email")
	}

	_, err = s.resets.FindActive(ctx, u.ID, code, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errBadCode
	}
	if err != nil {
		return nil, apperr.Internalf(err, "find reset code")
	}
	return u, nil
}

// Verify checks a code without consuming it.
func (s *Service) Verify(ctx context.Context, email, code string) error {
	_, err := s.lookup(ctx, email, code)
	return err
}

// Reset sets a new password and invalidates every outstanding code of the user.
func (s *Service) Reset(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		errs := apperr.FieldErrors{}
		errs.Add("newPassword", "La nueva contraseña debe tener al menos 8 caracteres")
		return apperr.Invalid(errs)
	}

	code = strings.TrimSpace(code)
	u, err := s.lookup(ctx, email, code)
	if err != nil {
		return err
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return apperr.Internalf(err, "hash password")
	}
	err = s.resets.Consume(ctx, u.ID, code, s.now(), hash)
	if errors.Is(err, repository.ErrNotFound) {
		return errBadCode
	}
	if err != nil {
		return apperr.Internalf(err, "consume reset code")
	}
	s.log.Info("password reset", zap.Stringer("user_id", u.ID))
	return nil
}

// PurgeExpired deletes codes that expired more than Retention ago.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.resets.PurgeExpired(ctx, s.now().Add(-Retention))
}
