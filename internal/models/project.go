package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectPending   ProjectStatus = "pending"   // contratado, esperando al freelancer
	ProjectActive    ProjectStatus = "active"    // en progreso
	ProjectReview    ProjectStatus = "review"    // entregado, esperando aprobación
	ProjectCompleted ProjectStatus = "completed" // aprobado
	ProjectCancelled ProjectStatus = "cancelled"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectPending, ProjectActive, ProjectReview, ProjectCompleted, ProjectCancelled:
		return true
	}
	return false
}

// Project is a contract between a client and the freelancer who owns the service.
type Project struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ServiceID    uuid.UUID `gorm:"type:uuid;not null;index" json:"service_id"`
	ClientID     uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`
	FreelancerID uuid.UUID `gorm:"type:uuid;not null;index" json:"freelancer_id"`

	Title        string        `gorm:"type:varchar(200);not null" json:"title"`
	Requirements string        `gorm:"type:text" json:"requirements"`
	Amount       float64       `gorm:"type:numeric(12,2);not null" json:"amount"`
	Status       ProjectStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	StartDate    time.Time     `json:"start_date"`
	Deadline     time.Time     `json:"deadline"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Service    *Service `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
	Client     *User    `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Freelancer *User    `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

// IsParticipant reports whether userID is the project's client or freelancer.
func (p *Project) IsParticipant(userID uuid.UUID) bool {
	return p.ClientID == userID || p.FreelancerID == userID
}

type PaymentMethod string

const (
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentPaypal   PaymentMethod = "paypal"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCard, PaymentTransfer, PaymentPaypal:
		return true
	}
	return false
}

const PaymentCompleted = "completed"

// Payment is recorded once per project, alongside it.
type Payment struct {
	ID            uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID     uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex" json:"project_id"`
	ClientID      uuid.UUID     `gorm:"type:uuid;not null;index" json:"client_id"`
	FreelancerID  uuid.UUID     `gorm:"type:uuid;not null;index" json:"freelancer_id"`
	Amount        float64       `gorm:"type:numeric(12,2);not null" json:"amount"`
	PaymentMethod PaymentMethod `gorm:"type:varchar(20);not null" json:"payment_method"`
	Status        string        `gorm:"type:varchar(20);not null" json:"status"`
	PaidAt        *time.Time    `json:"paid_at"`

	CreatedAt time.Time `json:"created_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
