package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/apperr"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/middleware"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/models"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/realtime"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/services/messaging"
)

type ChatHandler struct {
	Messaging *messaging.Service
	Hub       *realtime.Hub
	Tokens    middleware.TokenVerifier
	Log       *zap.Logger
}

func (h *ChatHandler) ListConversations(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	out, err := h.Messaging.ListConversations(c.UserContext(), u)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "", out)
}

type StartConversationReq struct {
	ReceiverID string `json:"receiver_id"`
	ProjectID  string `json:"project_id"`
	Message    string `json:"message"`
}

func (h *ChatHandler) StartConversation(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var req StartConversationReq
	if err := c.BodyParser(&req); err != nil {
		return invalidBody()
	}
	receiverID, err := parseUUID(req.ReceiverID, "receiver_id")
	if err != nil {
		return err
	}
	projectID, err := optionalUUID(req.ProjectID, "project_id")
	if err != nil {
		return err
	}

	res, err := h.Messaging.StartConversation(c.UserContext(), u, messaging.StartInput{
		ReceiverID: receiverID,
		ProjectID:  projectID,
		Message:    req.Message,
	})
	if err != nil {
		return err
	}
	status := fiber.StatusOK
	if res.IsNew {
		status = fiber.StatusCreated
	}
	return respond(c, status, "", res)
}

func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	chatID, err := paramUUID(c, "chatId")
	if err != nil {
		return err
	}
	msgs, err := h.Messaging.GetMessages(c.UserContext(), u, chatID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "", msgs)
}

type SendMessageReq struct {
	Message    string `json:"message"`
	ReceiverID string `json:"receiver_id"`
	ProjectID  string `json:"project_id"`
}

func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	chatID, err := paramUUID(c, "chatId")
	if err != nil {
		return err
	}
	var req SendMessageReq
	if err := c.BodyParser(&req); err != nil {
		return invalidBody()
	}
	receiverID, err := optionalUUID(req.ReceiverID, "receiver_id")
	if err != nil {
		return err
	}
	projectID, err := optionalUUID(req.ProjectID, "project_id")
	if err != nil {
		return err
	}

	msg, err := h.Messaging.SendMessage(c.UserContext(), u, chatID, messaging.SendInput{
		Body:       req.Message,
		ReceiverID: receiverID,
		ProjectID:  projectID,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, "", msg)
}

func (h *ChatHandler) MarkRead(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	chatID, err := paramUUID(c, "chatId")
	if err != nil {
		return err
	}
	n, err := h.Messaging.MarkRead(c.UserContext(), u, chatID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "", fiber.Map{"marked": n})
}

func (h *ChatHandler) Unread(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	n, err := h.Messaging.UnreadTotal(c.UserContext(), u)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "", fiber.Map{"unread": n})
}

// UpgradeWebSocket verifies ?token= before the upgrade and hands the user
// to the websocket handler through locals.
func (h *ChatHandler) UpgradeWebSocket(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	token := c.Query("token")
	if token == "" {
		token = c.Cookies(middleware.CookieName)
	}
	if token == "" {
		return apperr.New(apperr.Unauthorized, "Token requerido")
	}
	u, err := h.Tokens.VerifyToken(c.UserContext(), token)
	if err != nil {
		return err
	}
	c.Locals("currentUser", u)
	return c.Next()
}

func (h *ChatHandler) WebSocket(c *websocket.Conn) {
	u, ok := c.Locals("currentUser").(*models.User)
	if !ok || u == nil {
		_ = c.Close()
		return
	}

	client := realtime.NewClient(u.ID)
	if !h.Hub.RegisterClient(client) {
		_ = c.Close()
		return
	}
	h.Log.Info("websocket connected", zap.Stringer("user_id", u.ID), zap.String("client_id", client.ID))

	stopped := client.WritePump(func(msg []byte) error {
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.Log.Debug("websocket write", zap.Error(err))
			return err
		}
		return nil
	}, func() { _ = c.Close() })

	// Inbound frames only keep the connection alive.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}

	h.Hub.UnregisterClient(client)
	<-stopped
	h.Log.Info("websocket disconnected", zap.Stringer("user_id", u.ID), zap.String("client_id", client.ID))
}
