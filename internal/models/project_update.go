package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProjectUpdate is an append-only progress note. Files keep submission order.
type ProjectUpdate struct {
	ID           uuid.UUID                  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID    uuid.UUID                  `gorm:"type:uuid;not null;index" json:"project_id"`
	FreelancerID uuid.UUID                  `gorm:"type:uuid;not null;index" json:"freelancer_id"`
	Title        string                     `gorm:"type:varchar(200);not null" json:"title"`
	Description  string                     `gorm:"type:text;not null" json:"description"`
	Files        datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"files"`
	CreatedAt    time.Time                  `gorm:"index" json:"created_at"`
}

func (u *ProjectUpdate) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}
