package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PriceType string

const (
	PriceFixed  PriceType = "fixed"
	PriceHourly PriceType = "hourly"
)

// Service is a freelancer's published offering. Rows are never removed,
// deactivation flips IsActive so projects keep their reference.
type Service struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FreelancerID uuid.UUID `gorm:"type:uuid;not null;index" json:"freelancer_id"`

	Title        string    `gorm:"type:varchar(200);not null" json:"title"`
	Description  string    `gorm:"type:text;not null" json:"description"`
	Category     string    `gorm:"type:varchar(100);not null;index" json:"category"`
	Subcategory  string    `gorm:"type:varchar(100)" json:"subcategory"`
	PriceType    PriceType `gorm:"type:varchar(20);not null;default:'fixed'" json:"price_type"`
	BasePrice    float64   `gorm:"type:numeric(12,2);not null" json:"base_price"`
	DeliveryTime int       `gorm:"not null;default:7" json:"delivery_time"` // days
	Requirements string    `gorm:"type:text" json:"requirements"`

	Tags   datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"tags"`
	Images datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"images"`

	IsActive bool `gorm:"not null;default:true;index" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Freelancer *User `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
}

func (s *Service) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}
