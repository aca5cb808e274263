package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/services/account"
)

// UserHandler serves public profiles and the caller's own profile edits.
type UserHandler struct {
	Accounts *account.Service
}

func NewUserHandler(accounts *account.Service) *UserHandler {
	return &UserHandler{Accounts: accounts}
}

func (h *UserHandler) GetPublic(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.Accounts.GetPublic(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "", p)
}

// UpdateProfile accepts multipart (with optional "avatar") or JSON. Only
// keys present in the request are changed.
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	fields, err := formFields(c)
	if err != nil {
		return err
	}
	in := account.ProfileInput{
		Name:            field(fields, "name"),
		Phone:           field(fields, "phone"),
		Bio:             field(fields, "bio"),
		HourlyRate:      field(fields, "hourly_rate"),
		Skills:          field(fields, "skills"),
		Languages:       field(fields, "languages"),
		ExperienceLevel: field(fields, "experience_level"),
		PortfolioURL:    field(fields, "portfolio_url"),
		LinkedInURL:     field(fields, "linkedin_url"),
		GitHubURL:       field(fields, "github_url"),
		WebsiteURL:      field(fields, "website_url"),
		Availability:    field(fields, "availability"),
		University:      field(fields, "university"),
		Career:          field(fields, "career"),
	}

	updated, err := h.Accounts.UpdateProfile(c.UserContext(), u, id, in, singleFile(c, "avatar"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Perfil actualizado", updated)
}

type ChangePasswordReq struct {
	CurrentPassword string `json:"currentPassword" form:"currentPassword"`
	NewPassword     string `json:"newPassword" form:"newPassword"`
}

func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var req ChangePasswordReq
	if err := c.BodyParser(&req); err != nil {
		return invalidBody()
	}
	if err := h.Accounts.ChangePassword(c.UserContext(), u, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Contraseña actualizada", nil)
}
