package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/models"
)

type PasswordResetRepository interface {
	// Issue replaces every earlier code of the user with c.
	Issue(ctx context.Context, c *models.PasswordResetCode) error
	FindActive(ctx context.Context, userID uuid.UUID, code string, now time.Time) (*models.PasswordResetCode, error)
	// Consume burns code, sets the new password hash and burns the user's
	// other codes. ErrNotFound means code was no longer usable at now.
	Consume(ctx context.Context, userID uuid.UUID, code string, now time.Time, passwordHash string) error
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

type passwordResetRepository struct {
	db *gorm.DB
}

func NewPasswordResetRepository(db *gorm.DB) PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

func (r *passwordResetRepository) Issue(ctx context.Context, c *models.PasswordResetCode) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", c.UserID).Delete(&models.PasswordResetCode{}).Error; err != nil {
			return err
		}
		return tx.Create(c).Error
	})
}

func (r *passwordResetRepository) FindActive(ctx context.Context, userID uuid.UUID, code string, now time.Time) (*models.PasswordResetCode, error) {
	var c models.PasswordResetCode
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND code = ? AND used = false AND expires_at > ?", userID, code, now).
		Order("created_at DESC").
		First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *passwordResetRepository) Consume(ctx context.Context, userID uuid.UUID, code string, now time.Time, passwordHash string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PasswordResetCode{}).
			Where("user_id = ? AND code = ? AND used = false AND expires_at > ?", userID, code, now).
			Update("used", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		res = tx.Model(&models.User{}).Where("id = ?", userID).Update("password", passwordHash)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Model(&models.PasswordResetCode{}).
			Where("user_id = ? AND used = false", userID).
			Update("used", true).Error
	})
}

func (r *passwordResetRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", before).Delete(&models.PasswordResetCode{})
	return res.RowsAffected, res.Error
}
