// Package account covers registration, login and profile maintenance.
package account

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/apperr"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/models"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/repository"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/services/auth"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/storage"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/utils"
)

const (
	MinPasswordLen = 8
	MaxAvatarSize  = 2 << 20
	avatarFolder   = "avatars"
)

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

type Service struct {
	users repository.UserRepository
	creds *auth.Credentials
	store storage.Store
	log   *zap.Logger
}

func NewService(users repository.UserRepository, creds *auth.Credentials, store storage.Store, log *zap.Logger) *Service {
	return &Service{users: users, creds: creds, store: store, log: log}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Role     string
}

// Session is what login and registration hand back to the client.
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput, avatar *storage.File) (*Session, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	phone := strings.TrimSpace(in.Phone)
	role := models.Role(strings.ToLower(strings.TrimSpace(in.Role)))
	if role == "" {
		role = models.RoleClient
	}

	errs := apperr.FieldErrors{}
	if name == "" {
		errs.Add("name", "El nombre es obligatorio")
	}
	if email == "" {
		errs.Add("email", "El correo es obligatorio")
	} else if !strings.Contains(email, "@") {
		errs.Add("email", "Formato de correo inválido")
	}
	if in.Password == "" {
		errs.Add("password", "La contraseña es obligatoria")
	} else if len(in.Password) < MinPasswordLen {
		errs.Add("password", "La contraseña debe tener al menos 8 caracteres")
	}
	if phone != "" && len(phone) < 7 {
		errs.Add("phone", "Teléfono inválido")
	}
	if role != models.RoleClient && role != models.RoleFreelancer {
		errs.Add("role", "El tipo de cuenta debe ser client o freelancer")
	}
	if avatar != nil {
		if err := checkAvatar(*avatar); err != nil {
			return nil, err
		}
	}
	if err := apperr.Invalid(errs); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, emailTaken()
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Internalf(err, "lookup email")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internalf(err, "hash password")
	}

	u := &models.User{
		Name:     name,
		Email:    email,
		Phone:    phone,
		Password: hash,
		Role:     role,
		IsActive: true,
	}

	if avatar != nil {
		paths, err := storage.SaveAll(ctx, s.store, avatarFolder, []storage.File{*avatar})
		if err != nil {
			return nil, apperr.Internalf(err, "store avatar")
		}
		u.AvatarURL = paths[0]
	}

	if err := s.users.Create(ctx, u); err != nil {
		if u.AvatarURL != "" {
			storage.Cleanup(ctx, s.store, []string{u.AvatarURL})
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, emailTaken()
		}
		return nil, apperr.Internalf(err, "create user")
	}

	s.log.Info("user registered", zap.Stringer("user_id", u.ID), zap.String("role", string(u.Role)))
	return s.session(u)
}

func emailTaken() error {
	errs := apperr.FieldErrors{}
	errs.Add("email", "El correo ya está registrado")
	return apperr.Invalid(errs)
}

func checkAvatar(f storage.File) error {
	if !imageExts[storage.Ext(f.Name)] {
		errs := apperr.FieldErrors{}
		errs.Add("avatar", "Formato de imagen no permitido (jpg, jpeg, png, webp)")
		return apperr.Invalid(errs)
	}
	if f.Size > MaxAvatarSize {
		return apperr.New(apperr.TooLarge, "La foto de perfil no puede superar 2MB")
	}
	return nil
}

func (s *Service) session(u *models.User) (*Session, error) {
	tok, err := s.creds.IssueToken(u)
	if err != nil {
		return nil, apperr.Internalf(err, "sign token")
	}
	return &Session{Token: tok, User: u}, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	errs := apperr.FieldErrors{}
	if email == "" {
		errs.Add("email", "El correo es obligatorio")
	}
	if password == "" {
		errs.Add("password", "La contraseña es obligatoria")
	}
	if err := apperr.Invalid(errs); err != nil {
		return nil, err
	}

	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.New(apperr.Unauthorized, "Correo o contraseña incorrectos")
	}
	if err != nil {
		return nil, apperr.Internalf(err, "lookup email")
	}
	if !utils.CheckPassword(u.Password, password) {
		return nil, apperr.New(apperr.Unauthorized, "Correo o contraseña incorrectos")
	}
	if !u.IsActive {
		return nil, apperr.New(apperr.Unauthorized, "Cuenta inactiva")
	}
	return s.session(u)
}

// LoginWithGoogle finds or creates a client account for a verified Google email.
func (s *Service) LoginWithGoogle(ctx context.Context, email, name, picture string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperr.New(apperr.Validation, "Google no devolvió un correo")
	}

	u, err := s.users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		// the account gets an unusable random password
		raw, err := utils.NumericCode(32)
		if err != nil {
			return nil, apperr.Internalf(err, "random password")
		}
		hash, err := utils.HashPassword(raw)
		if err != nil {
			return nil, apperr.Internalf(err, "hash password")
		}
		if strings.TrimSpace(name) == "" {
			name = strings.Split(email, "@")[0]
		}
		u = &models.User{
			Name:      strings.TrimSpace(name),
			Email:     email,
			Password:  hash,
			AvatarURL: picture,
			Role:      models.RoleClient,
			IsActive:  true,
		}
		if err := s.users.Create(ctx, u); err != nil {
			return nil, apperr.Internalf(err, "create google user")
		}
	case err != nil:
		return nil, apperr.Internalf(err, "lookup email")
	}

	if !u.IsActive {
		return nil, apperr.New(apperr.Unauthorized, "Cuenta inactiva")
	}
	return s.session(u)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.New(apperr.NotFound, "Usuario no encontrado")
	}
	if err != nil {
		return nil, apperr.Internalf(err, "load user %s", id)
	}
	return u, nil
}

// PublicProfile is what other users may see of an account.
type PublicProfile struct {
	ID        uuid.UUID                 `json:"id"`
	Name      string                    `json:"name"`
	AvatarURL string                    `json:"avatar_url"`
	Role      models.Role               `json:"role"`
	Profile   *models.FreelancerProfile `json:"freelancer_profile,omitempty"`
}

func (s *Service) GetPublic(ctx context.Context, id uuid.UUID) (*PublicProfile, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, apperr.New(apperr.NotFound, "Usuario no encontrado")
	}
	return &PublicProfile{ID: u.ID, Name: u.Name, AvatarURL: u.AvatarURL, Role: u.Role, Profile: u.FreelancerProfile}, nil
}

func (s *Service) ChangePassword(ctx context.Context, caller *models.User, current, next string) error {
	errs := apperr.FieldErrors{}
	if current == "" {
		errs.Add("currentPassword", "La contraseña actual es obligatoria")
	}
	if len(next) < MinPasswordLen {
		errs.Add("newPassword", "La nueva contraseña debe tener al menos 8 caracteres")
	}
	if err := apperr.Invalid(errs); err != nil {
		return err
	}

	u, err := s.Get(ctx, caller.ID)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(u.Password, current) {
		errs.Add("currentPassword", "La contraseña actual es incorrecta")
		return apperr.Invalid(errs)
	}

	hash, err := utils.HashPassword(next)
	if err != nil {
		return apperr.Internalf(err, "hash password")
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return apperr.Internalf(err, "update password")
	}
	return nil
}
