package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/models"
)

// Contract is everything a hire writes. Chat is filled in by CreateContract.
type Contract struct {
	Project *models.Project
	Payment *models.Payment
	Seed    *models.Message
	Chat    *models.Chat
}

type ProjectFilter struct {
	Status models.ProjectStatus
	// As narrows to projects where the user holds this side; empty means either.
	As models.Role
}

type ProjectRepository interface {
	CreateContract(ctx context.Context, c *Contract) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListForUser(ctx context.Context, userID uuid.UUID, f ProjectFilter) ([]models.Project, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.ProjectStatus) error
	FindPayment(ctx context.Context, projectID uuid.UUID) (*models.Payment, error)
	CountByStatus(ctx context.Context, userID uuid.UUID, status models.ProjectStatus) (int64, error)
	SumPayments(ctx context.Context, userID uuid.UUID, as models.Role) (float64, error)
}

type projectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

// CreateContract writes project, payment, chat and seed message atomically.
func (r *projectRepository) CreateContract(ctx context.Context, c *Contract) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(c.Project).Error; err != nil {
			return translate(err)
		}

		c.Payment.ProjectID = c.Project.ID
		if err := tx.Create(c.Payment).Error; err != nil {
			return translate(err)
		}

		chat, _, err := findOrCreateProjectChat(tx, c.Project)
		if err != nil {
			return err
		}
		c.Chat = chat

		pid := c.Project.ID
		c.Seed.ChatID = chat.ID
		c.Seed.ProjectID = &pid
		return insertMessage(tx, c.Seed)
	})
}

func (r *projectRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var p models.Project
	err := r.db.WithContext(ctx).
		Preload("Service").
		Preload("Client").
		Preload("Freelancer").
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *projectRepository) ListForUser(ctx context.Context, userID uuid.UUID, f ProjectFilter) ([]models.Project, error) {
	q := r.db.WithContext(ctx).
		Preload("Service").
		Preload("Client").
		Preload("Freelancer")

	switch f.As {
	case models.RoleClient:
		q = q.Where("client_id = ?", userID)
	case models.RoleFreelancer:
		q = q.Where("freelancer_id = ?", userID)
	default:
		q = q.Where("client_id = ? OR freelancer_id = ?", userID, userID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var out []models.Project
	err := q.Order("created_at DESC").Find(&out).Error
	return out, err
}

// UpdateStatus is a compare-and-set on the current status.
func (r *projectRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.ProjectStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Project{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}

func (r *projectRepository) FindPayment(ctx context.Context, projectID uuid.UUID) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.WithContext(ctx).First(&p, "project_id = ?", projectID).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *projectRepository) CountByStatus(ctx context.Context, userID uuid.UUID, status models.ProjectStatus) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Project{}).
		Where("(client_id = ? OR freelancer_id = ?) AND status = ?", userID, userID, status).
		Count(&n).Error
	return n, err
}

func (r *projectRepository) SumPayments(ctx context.Context, userID uuid.UUID, as models.Role) (float64, error) {
	col := "client_id"
	if as == models.RoleFreelancer {
		col = "freelancer_id"
	}
	var total float64
	err := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where(col+" = ? AND status = ?", userID, models.PaymentCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}
