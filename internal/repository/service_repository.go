package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/models"
)

type ServiceFilter struct {
	FreelancerID    *uuid.UUID
	Category        string
	Query           string
	IncludeInactive bool
	Limit           int
	Offset          int
}

type ServiceRepository interface {
	Create(ctx context.Context, s *models.Service) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Service, error)
	Update(ctx context.Context, s *models.Service) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	List(ctx context.Context, f ServiceFilter) ([]models.Service, int64, error)
	Categories(ctx context.Context) ([]string, error)
}

type serviceRepository struct {
	db *gorm.DB
}

func NewServiceRepository(db *gorm.DB) ServiceRepository {
	return &serviceRepository{db: db}
}

func (r *serviceRepository) Create(ctx context.Context, s *models.Service) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(s).Error)
}

func (r *serviceRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	var s models.Service
	if err := r.db.WithContext(ctx).Preload("Freelancer").First(&s, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *serviceRepository) Update(ctx context.Context, s *models.Service) error {
	return translate(r.db.WithContext(ctx).Model(s).
		Select("title", "description", "category", "subcategory", "price_type", "base_price",
			"delivery_time", "requirements", "tags", "images", "is_active").
		Updates(s).Error)
}

func (r *serviceRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res := r.db.WithContext(ctx).Model(&models.Service{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *serviceRepository) List(ctx context.Context, f ServiceFilter) ([]models.Service, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Service{})
	if !f.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	if f.FreelancerID != nil {
		q = q.Where("freelancer_id = ?", *f.FreelancerID)
	}
	if c := strings.TrimSpace(f.Category); c != "" {
		q = q.Where("LOWER(category) = LOWER(?)", c)
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []models.Service
	q = q.Preload("Freelancer").Order("created_at DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *serviceRepository) Categories(ctx context.Context) ([]string, error) {
	var cats []string
	err := r.db.WithContext(ctx).Model(&models.Service{}).
		Where("is_active = ?", true).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &cats).Error
	return cats, err
}
