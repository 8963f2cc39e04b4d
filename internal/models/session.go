package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserSession persists the conversational state of a bot user so the
// flow survives restarts. StateData holds the step payload as JSON.
type UserSession struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID int64     `gorm:"uniqueIndex;not null" json:"user_id"`

	CurrentState string `gorm:"type:varchar(100)" json:"current_state"`
	StateData    JSON   `gorm:"type:jsonb" json:"state_data"`

	LastActivity time.Time `gorm:"default:CURRENT_TIMESTAMP;index" json:"last_activity"`
	CreatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// BeforeCreate assigns a UUID primary key
func (s *UserSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
