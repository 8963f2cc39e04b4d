package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PortfolioProject represents a showcased past project
type PortfolioProject struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Slug string    `gorm:"type:varchar(220);uniqueIndex" json:"slug"`

	Title       string `gorm:"type:varchar(200);not null" json:"title"`
	Description string `gorm:"type:text;not null" json:"description"`
	Details     string `gorm:"type:text;not null" json:"details"`
	Cost        string `gorm:"type:varchar(100);not null" json:"cost"`

	ImageURL     string `gorm:"type:varchar(500)" json:"image_url"` // legacy, kept for older records
	VideoURL     string `gorm:"type:varchar(500)" json:"video_url"`
	BotURL       string `gorm:"type:varchar(500)" json:"bot_url"`
	Technologies string `gorm:"type:varchar(500)" json:"technologies"`
	Duration     string `gorm:"type:varchar(100)" json:"duration"`

	CreatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a UUID primary key
func (p *PortfolioProject) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
