package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/models"
)

type ProjectUpdateRepository interface {
	Create(ctx context.Context, u *models.ProjectUpdate) error
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.ProjectUpdate, error)
}

type projectUpdateRepository struct {
	db *gorm.DB
}

func NewProjectUpdateRepository(db *gorm.DB) ProjectUpdateRepository {
	return &projectUpdateRepository{db: db}
}

func (r *projectUpdateRepository) Create(ctx context.Context, u *models.ProjectUpdate) error {
	return translate(r.db.WithContext(ctx).Create(u).Error)
}

// ListByProject returns the log newest first.
func (r *projectUpdateRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.ProjectUpdate, error) {
	var out []models.ProjectUpdate
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}
