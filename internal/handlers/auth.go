package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/middleware"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/services/account"
)

type AuthHandler struct {
	Accounts     *account.Service
	Expires      int
	SecureCookie bool
}

type RegisterReq struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Phone    string `json:"phone" form:"phone"`
	Role     string `json:"role" form:"role"` // client / freelancer
}

func (h *AuthHandler) setSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.SecureCookie,
		SameSite: "Lax",
		MaxAge:   h.Expires * 60,
	})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterReq
	if err := c.BodyParser(&req); err != nil {
		return invalidBody()
	}

	sess, err := h.Accounts.Register(c.UserContext(), account.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Role:     req.Role,
	}, singleFile(c, "avatar"))
	if err != nil {
		return err
	}

	h.setSessionCookie(c, sess.Token)
	return respond(c, fiber.StatusCreated, "Registro exitoso", sess)
}

type LoginReq struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := c.BodyParser(&req); err != nil {
		return invalidBody()
	}

	sess, err := h.Accounts.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.setSessionCookie(c, sess.Token)
	return respond(c, fiber.StatusOK, "Inicio de sesión exitoso", sess)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "", u)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   h.SecureCookie,
		SameSite: "Lax",
	})
	return respond(c, fiber.StatusOK, "Sesión cerrada", nil)
}
