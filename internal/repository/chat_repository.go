package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/models"
)

type ChatRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Chat, error)
	FindByProject(ctx context.Context, projectID uuid.UUID) (*models.Chat, error)
	// FindOrCreateForProject returns the project's chat and whether this call created it.
	FindOrCreateForProject(ctx context.Context, p *models.Project) (*models.Chat, bool, error)
	FindOrCreateDirect(ctx context.Context, clientID, freelancerID uuid.UUID) (*models.Chat, bool, error)
	ListSummaries(ctx context.Context, userID uuid.UUID) ([]models.ConversationSummary, error)
	ListMessages(ctx context.Context, chatID uuid.UUID) ([]models.Message, error)
	MarkRead(ctx context.Context, chatID, readerID uuid.UUID, at time.Time) (int64, error)
	CreateMessage(ctx context.Context, m *models.Message) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
}

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Chat, error) {
	var c models.Chat
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *chatRepository) FindByProject(ctx context.Context, projectID uuid.UUID) (*models.Chat, error) {
	var c models.Chat
	if err := r.db.WithContext(ctx).First(&c, "project_id = ?", projectID).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *chatRepository) FindOrCreateForProject(ctx context.Context, p *models.Project) (*models.Chat, bool, error) {
	return findOrCreateProjectChat(r.db.WithContext(ctx), p)
}

// findOrCreateProjectChat relies on the unique index on chats.project_id:
// a losing concurrent insert does nothing and reads the winner's row.
func findOrCreateProjectChat(tx *gorm.DB, p *models.Project) (*models.Chat, bool, error) {
	pid := p.ID
	chat := models.Chat{ProjectID: &pid, ClientID: p.ClientID, FreelancerID: p.FreelancerID}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&chat)
	if res.Error != nil {
		return nil, false, translate(res.Error)
	}
	if res.RowsAffected == 1 {
		return &chat, true, nil
	}

	var existing models.Chat
	if err := tx.First(&existing, "project_id = ?", pid).Error; err != nil {
		return nil, false, translate(err)
	}
	return &existing, false, nil
}

func (r *chatRepository) FindOrCreateDirect(ctx context.Context, clientID, freelancerID uuid.UUID) (*models.Chat, bool, error) {
	tx := r.db.WithContext(ctx)
	chat := models.Chat{ClientID: clientID, FreelancerID: freelancerID}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&chat)
	if res.Error != nil {
		return nil, false, translate(res.Error)
	}
	if res.RowsAffected == 1 {
		return &chat, true, nil
	}

	var existing models.Chat
	err := tx.Where("client_id = ? AND freelancer_id = ? AND project_id IS NULL", clientID, freelancerID).
		First(&existing).Error
	if err != nil {
		return nil, false, translate(err)
	}
	return &existing, false, nil
}

const summariesSQL = `
SELECT c.id AS chat_id,
       c.project_id,
       COALESCE(p.title, '') AS project_title,
       c.created_at,
       u.id AS counterpart_id,
       u.name AS counterpart_name,
       COALESCE(u.avatar_url, '') AS counterpart_avatar,
       u.role AS counterpart_role,
       lm.body AS last_message,
       lm.created_at AS last_message_at,
       (SELECT COUNT(*) FROM messages um
         WHERE um.chat_id = c.id AND um.receiver_id = @user AND um.is_read = false) AS unread_count
FROM chats c
JOIN users u ON u.id = CASE WHEN c.client_id = @user THEN c.freelancer_id ELSE c.client_id END
LEFT JOIN projects p ON p.id = c.project_id
LEFT JOIN LATERAL (
    SELECT m.body, m.created_at FROM messages m
     WHERE m.chat_id = c.id
     ORDER BY m.created_at DESC, m.id DESC
     LIMIT 1
) lm ON true
WHERE c.client_id = @user OR c.freelancer_id = @user
ORDER BY COALESCE(lm.created_at, c.created_at) DESC`

type summaryRow struct {
	ChatID            uuid.UUID
	ProjectID         *uuid.UUID
	ProjectTitle      string
	CreatedAt         time.Time
	CounterpartID     uuid.UUID
	CounterpartName   string
	CounterpartAvatar string
	CounterpartRole   string
	LastMessage       *string
	LastMessageAt     *time.Time
	UnreadCount       int64
}

func (r *chatRepository) ListSummaries(ctx context.Context, userID uuid.UUID) ([]models.ConversationSummary, error) {
	var rows []summaryRow
	if err := r.db.WithContext(ctx).Raw(summariesSQL, map[string]interface{}{"user": userID}).Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]models.ConversationSummary, 0, len(rows))
	for _, row := range rows {
		s := models.ConversationSummary{
			ChatID:       row.ChatID,
			ProjectID:    row.ProjectID,
			ProjectTitle: row.ProjectTitle,
			Counterpart: models.UserSummary{
				ID:        row.CounterpartID,
				Name:      row.CounterpartName,
				AvatarURL: row.CounterpartAvatar,
				Role:      models.Role(row.CounterpartRole),
			},
			LastMessageAt: row.LastMessageAt,
			UnreadCount:   row.UnreadCount,
			CreatedAt:     row.CreatedAt,
		}
		if row.LastMessage != nil {
			s.LastMessage = *row.LastMessage
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *chatRepository) ListMessages(ctx context.Context, chatID uuid.UUID) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("chat_id = ?", chatID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	return msgs, err
}

func (r *chatRepository) MarkRead(ctx context.Context, chatID, readerID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("chat_id = ? AND receiver_id = ? AND is_read = false", chatID, readerID).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": at,
		})
	return res.RowsAffected, res.Error
}

func (r *chatRepository) CreateMessage(ctx context.Context, m *models.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return insertMessage(tx, m)
	})
}

// insertMessage stores m and bumps the chat's activity timestamp.
func insertMessage(tx *gorm.DB, m *models.Message) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if err := tx.Omit(clause.Associations).Create(m).Error; err != nil {
		return translate(err)
	}
	return tx.Model(&models.Chat{}).
		Where("id = ?", m.ChatID).
		Update("last_message_at", m.CreatedAt).Error
}

func (r *chatRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("receiver_id = ? AND is_read = false", userID).
		Count(&n).Error
	return n, err
}
