package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Intake statuses shared by team applications and consultation requests
const (
	IntakeStatusNew      = "new"
	IntakeStatusAccepted = "accepted"
	IntakeStatusRejected = "rejected"
	IntakeStatusAnswered = "answered"
	IntakeStatusClosed   = "completed"
)

// TeamApplication represents a request to join the development team
type TeamApplication struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID   int64     `gorm:"index:idx_team_applications_user_status;not null" json:"user_id"`
	Username string    `gorm:"type:varchar(100)" json:"username"`

	FullName   string `gorm:"type:varchar(200);not null" json:"full_name"`
	Age        string `gorm:"type:varchar(10);not null" json:"age"`
	Experience string `gorm:"type:varchar(500);not null" json:"experience"`
	Stack      string `gorm:"type:text;not null" json:"stack"`
	About      string `gorm:"type:text;not null" json:"about"`
	Motivation string `gorm:"type:text;not null" json:"motivation"`
	Role       string `gorm:"type:varchar(200);not null" json:"role"`

	Status    string         `gorm:"type:varchar(20);default:'new';index:idx_team_applications_user_status" json:"status"`
	CreatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a UUID primary key
func (a *TeamApplication) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// ConsultationRequest represents a free-form question from a prospective client
type ConsultationRequest struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID   int64     `gorm:"index:idx_consultation_requests_user_status;not null" json:"user_id"`
	Username string    `gorm:"type:varchar(100)" json:"username"`

	Question string `gorm:"type:text;not null" json:"question"`
	Answer   string `gorm:"type:text" json:"answer"`

	Status    string         `gorm:"type:varchar(20);default:'new';index:idx_consultation_requests_user_status" json:"status"`
	CreatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a UUID primary key
func (r *ConsultationRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
