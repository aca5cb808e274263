// internal/models/chat.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Chat is the thread between a client and a freelancer. A chat bound to a
// project is unique per project; a standalone chat is unique per pair.
type Chat struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`

	ProjectID    *uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"project_id,omitempty"`
	ClientID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"client_id"`
	FreelancerID uuid.UUID  `gorm:"type:uuid;not null;index" json:"freelancer_id"`

	LastMessageAt *time.Time `json:"last_message_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	Client     *User    `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Freelancer *User    `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
	Project    *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

func (c *Chat) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}

func (c *Chat) IsParticipant(userID uuid.UUID) bool {
	return c.ClientID == userID || c.FreelancerID == userID
}

// Counterpart returns the other participant. The caller must be a participant.
func (c *Chat) Counterpart(userID uuid.UUID) uuid.UUID {
	if userID == c.ClientID {
		return c.FreelancerID
	}
	return c.ClientID
}

// Message represents a message in a chat
type Message struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ChatID     uuid.UUID  `gorm:"type:uuid;not null;index:idx_messages_chat_created,priority:1" json:"chat_id"`
	SenderID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"sender_id"`
	ReceiverID uuid.UUID  `gorm:"type:uuid;not null;index" json:"receiver_id"`
	ProjectID  *uuid.UUID `gorm:"type:uuid;index" json:"project_id,omitempty"`
	Body       string     `gorm:"type:text;not null" json:"body"`
	IsRead     bool       `gorm:"default:false" json:"is_read"`
	ReadAt     *time.Time `json:"read_at"`
	CreatedAt  time.Time  `gorm:"index:idx_messages_chat_created,priority:2" json:"created_at"`

	// Preloaded relation
	Sender *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}

// ConversationSummary is one row of a user's inbox.
type ConversationSummary struct {
	ChatID        uuid.UUID   `json:"chat_id"`
	ProjectID     *uuid.UUID  `json:"project_id,omitempty"`
	ProjectTitle  string      `json:"project_title,omitempty"`
	Counterpart   UserSummary `json:"counterpart"`
	LastMessage   string      `json:"last_message"`
	LastMessageAt *time.Time  `json:"last_message_at"`
	UnreadCount   int64       `json:"unread_count"`
	CreatedAt     time.Time   `json:"created_at"`
}
