package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	// UpdateWithProfile writes the user's editable columns and, when p is
	// set, upserts the freelancer profile in the same transaction.
	UpdateWithProfile(ctx context.Context, u *models.User, p *models.FreelancerProfile) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *models.User) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(u).Error)
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Preload("FreelancerProfile").First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	email = strings.ToLower(strings.TrimSpace(email))
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userRepository) Update(ctx context.Context, u *models.User) error {
	return updateUser(r.db.WithContext(ctx), u)
}

func updateUser(tx *gorm.DB, u *models.User) error {
	return translate(tx.Model(u).Select("name", "phone", "avatar_url", "role", "is_active").Updates(u).Error)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

var profileColumns = []string{
	"bio", "hourly_rate", "skills", "languages", "experience_level",
	"portfolio_url", "linkedin_url", "github_url", "website_url",
	"availability", "university", "career", "updated_at",
}

func (r *userRepository) UpdateWithProfile(ctx context.Context, u *models.User, p *models.FreelancerProfile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateUser(tx, u); err != nil {
			return err
		}
		if p == nil {
			return nil
		}
		return translate(tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns(profileColumns),
		}).Create(p).Error)
	})
}
