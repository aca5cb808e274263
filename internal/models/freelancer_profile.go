// internal/models/freelancer_profile.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ExperienceLevel string

const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceExpert       ExperienceLevel = "expert"
)

func (l ExperienceLevel) Valid() bool {
	switch l {
	case ExperienceBeginner, ExperienceIntermediate, ExperienceExpert:
		return true
	}
	return false
}

type FreelancerProfile struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	Bio             string                     `gorm:"type:text" json:"bio"`
	HourlyRate      float64                    `gorm:"type:numeric(12,2);default:0" json:"hourly_rate"`
	Skills          datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"skills"`
	Languages       datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"languages"`
	ExperienceLevel ExperienceLevel            `gorm:"type:varchar(20)" json:"experience_level"`

	PortfolioURL string `gorm:"type:text" json:"portfolio_url"`
	LinkedInURL  string `gorm:"type:text" json:"linkedin_url"`
	GitHubURL    string `gorm:"type:text" json:"github_url"`
	WebsiteURL   string `gorm:"type:text" json:"website_url"`

	Availability string `gorm:"type:varchar(40)" json:"availability"`
	University   string `gorm:"type:varchar(150)" json:"university"`
	Career       string `gorm:"type:varchar(150)" json:"career"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *FreelancerProfile) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
