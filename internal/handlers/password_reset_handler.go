package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/services/passwordreset"
)

type PasswordResetHandler struct {
	Resets *passwordreset.Service
}

type ResetRequestReq struct {
	Email string `json:"email"`
}

// Request answers the same way whether or not the email exists.
func (h *PasswordResetHandler) Request(c *fiber.Ctx) error {
	var req ResetRequestReq
	if err := c.BodyParser(&req); err != nil {
		return invalidBody()
	}
	if err := h.Resets.Request(c.UserContext(), req.Email); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Si el correo está registrado, recibirás un código de verificación", nil)
}

type VerifyCodeReq struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (h *PasswordResetHandler) Verify(c *fiber.Ctx) error {
	var req VerifyCodeReq
	if err := c.BodyParser(&req); err != nil {
		return invalidBody()
	}
	if err := h.Resets.Verify(c.UserContext(), req.Email, req.Code); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Código válido", fiber.Map{"valido": true})
}

type ResetPasswordReq struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

func (h *PasswordResetHandler) Reset(c *fiber.Ctx) error {
	var req ResetPasswordReq
	if err := c.BodyParser(&req); err != nil {
		return invalidBody()
	}
	if err := h.Resets.Reset(c.UserContext(), req.Email, req.Code, req.NewPassword); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Contraseña actualizada", nil)
}
