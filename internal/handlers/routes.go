package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/middleware"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/models"
)

// Set groups every HTTP handler of the API.
type Set struct {
	Auth     *AuthHandler
	Google   *GoogleOAuthHandler
	Users    *UserHandler
	Services *ServiceHandler
	Projects *ProjectHandler
	Chat     *ChatHandler
	Progress *ProgressHandler
	Resets   *PasswordResetHandler
}

// Register mounts the API on app. limit guards the credential endpoints;
// pass nil to leave them unthrottled.
func (s *Set) Register(app *fiber.App, tokens middleware.TokenVerifier, limit fiber.Handler) {
	if limit == nil {
		limit = func(c *fiber.Ctx) error { return c.Next() }
	}
	auth := middleware.RequireAuth(tokens)
	freelancer := middleware.RequireRoles(string(models.RoleFreelancer))

	api := app.Group("/api")

	// public
	api.Post("/registro", limit, s.Auth.Register)
	api.Post("/login", limit, s.Auth.Login)
	api.Post("/logout", s.Auth.Logout)
	if s.Google != nil {
		api.Get("/auth/google/start", s.Google.GoogleStart)
		api.Get("/auth/google/callback", s.Google.GoogleCallback)
	}
	api.Post("/recuperar-contrasena/solicitar", limit, s.Resets.Request)
	api.Post("/recuperar-contrasena/verificar-codigo", limit, s.Resets.Verify)
	api.Post("/recuperar-contrasena/cambiar-password", limit, s.Resets.Reset)

	api.Get("/categories", s.Services.Categories)
	api.Get("/services", s.Services.List)
	api.Get("/services/mine", auth, freelancer, s.Services.Mine)
	api.Get("/services/:id", s.Services.Get)
	api.Get("/usuario/:id", s.Users.GetPublic)

	// protected
	api.Get("/me", auth, s.Auth.Me)
	api.Post("/usuario/cambiar-password", auth, s.Users.ChangePassword)
	api.Put("/usuario/:id", auth, s.Users.UpdateProfile)

	api.Post("/services", auth, freelancer, s.Services.Create)
	api.Put("/services/:id", auth, freelancer, s.Services.Update)
	api.Delete("/services/:id", auth, freelancer, s.Services.Delete)

	api.Post("/contratos", auth, s.Projects.CreateContract)
	api.Get("/contratos", auth, s.Projects.List)
	api.Get("/projects", auth, s.Projects.List)
	api.Get("/projects/:id", auth, s.Projects.Get)
	api.Patch("/projects/:id/status", auth, s.Projects.ChangeStatus)
	api.Get("/dashboard", auth, s.Projects.Dashboard)

	api.Get("/conversations", auth, s.Chat.ListConversations)
	api.Post("/conversations", auth, s.Chat.StartConversation)
	api.Get("/conversations/unread", auth, s.Chat.Unread)
	api.Get("/conversations/:chatId/messages", auth, s.Chat.GetMessages)
	api.Post("/conversations/:chatId/messages", auth, s.Chat.SendMessage)
	api.Patch("/conversations/:chatId/read", auth, s.Chat.MarkRead)

	api.Post("/project-updates", auth, s.Progress.Create)
	api.Get("/project-updates", auth, s.Progress.List)

	app.Get("/ws/chat", s.Chat.UpgradeWebSocket, websocket.New(s.Chat.WebSocket))
}
