package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/botwerk/agency-backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service persists per-user conversation state. It replaces in-process
// state maps so the bot flow survives restarts and multiple instances.
type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewService creates a new session service
func NewService(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log}
}

// Save upserts the user's current state and step payload
func (s *Service) Save(userID int64, state string, data models.JSON) error {
	var existing models.UserSession
	err := s.db.Where("user_id = ?", userID).First(&existing).Error
	switch {
	case err == nil:
		if err := s.db.Model(&existing).Updates(map[string]interface{}{
			"current_state": state,
			"state_data":    data,
			"last_activity": time.Now(),
		}).Error; err != nil {
			return fmt.Errorf("error updating user session: %w", err)
		}
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		sess := models.UserSession{
			UserID:       userID,
			CurrentState: state,
			StateData:    data,
			LastActivity: time.Now(),
		}
		if err := s.db.Create(&sess).Error; err != nil {
			return fmt.Errorf("error creating user session: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("error finding user session: %w", err)
	}
}

// Get returns the user's session, or nil if none exists
func (s *Service) Get(userID int64) (*models.UserSession, error) {
	var sess models.UserSession
	err := s.db.Where("user_id = ?", userID).First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error finding user session: %w", err)
	}
	return &sess, nil
}

// Delete removes the user's session
func (s *Service) Delete(userID int64) error {
	if err := s.db.Where("user_id = ?", userID).Delete(&models.UserSession{}).Error; err != nil {
		return fmt.Errorf("error deleting user session: %w", err)
	}
	return nil
}

// DeleteStale removes sessions idle longer than maxAge and reports how
// many were removed. Called by the scheduled cleanup job.
func (s *Service) DeleteStale(maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge)
	result := s.db.Where("last_activity < ?", cutoff).Delete(&models.UserSession{})
	if result.Error != nil {
		return 0, fmt.Errorf("error deleting stale sessions: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		s.log.Info("stale sessions removed", zap.Int64("count", result.RowsAffected))
	}
	return result.RowsAffected, nil
}
