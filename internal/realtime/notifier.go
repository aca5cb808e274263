package realtime

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/models"
)

// Notifier pushes chat activity to connected sockets and to the
// per-user redis notification channel.
type Notifier struct {
	hub *Hub
	pub Publisher
	log *zap.Logger
}

func NewNotifier(hub *Hub, pub Publisher, log *zap.Logger) *Notifier {
	return &Notifier{hub: hub, pub: pub, log: log}
}

type chatNotification struct {
	Type     string `json:"type"`
	ChatID   string `json:"chat_id"`
	SenderID string `json:"sender_id"`
	Text     string `json:"text"`
}

func (n *Notifier) MessageCreated(ctx context.Context, chat *models.Chat, msg *models.Message) {
	if n == nil {
		return
	}
	if n.hub != nil {
		n.hub.SendToChat(chat.ClientID, chat.FreelancerID, map[string]interface{}{
			"type":    "new_message",
			"message": msg,
		})
	}
	if n.pub == nil {
		return
	}

	payload, err := json.Marshal(chatNotification{
		Type:     "chat_message",
		ChatID:   chat.ID.String(),
		SenderID: msg.SenderID.String(),
		Text:     msg.Body,
	})
	if err != nil {
		n.log.Error("marshal notification", zap.Error(err))
		return
	}
	if err := n.pub.Publish(ctx, NotificationChannel(msg.ReceiverID.String()), payload).Err(); err != nil {
		n.log.Warn("publish notification", zap.Error(err), zap.Stringer("receiver", msg.ReceiverID))
	}
}
