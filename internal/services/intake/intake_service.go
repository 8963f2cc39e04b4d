package intake

import (
	"errors"
	"fmt"

	"github.com/botwerk/agency-backend/internal/models"
	"github.com/botwerk/agency-backend/internal/services/referral"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service manages team-join applications and consultation requests
type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewService creates a new intake service
func NewService(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log}
}

// ApplicationInput carries the applicant-provided fields
type ApplicationInput struct {
	FullName   string
	Age        string
	Experience string
	Stack      string
	About      string
	Motivation string
	Role       string
}

// CreateApplication registers a new team application
func (s *Service) CreateApplication(userID int64, username string, input ApplicationInput) (*models.TeamApplication, error) {
	app := models.TeamApplication{
		UserID:     userID,
		Username:   username,
		FullName:   input.FullName,
		Age:        input.Age,
		Experience: input.Experience,
		Stack:      input.Stack,
		About:      input.About,
		Motivation: input.Motivation,
		Role:       input.Role,
		Status:     models.IntakeStatusNew,
	}
	if err := s.db.Create(&app).Error; err != nil {
		return nil, fmt.Errorf("error creating team application: %w", err)
	}

	s.log.Info("team application created",
		zap.String("application_id", app.ID.String()),
		zap.Int64("user_id", userID))
	return &app, nil
}

// Applications lists team applications newest first, optionally by status
func (s *Service) Applications(status string, limit int) ([]models.TeamApplication, error) {
	if limit <= 0 {
		limit = 50
	}
	query := s.db.Order("created_at DESC").Limit(limit)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var apps []models.TeamApplication
	if err := query.Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("error listing team applications: %w", err)
	}
	return apps, nil
}

// ReviewApplication accepts or rejects a new application
func (s *Service) ReviewApplication(appID uuid.UUID, accept bool) error {
	status := models.IntakeStatusRejected
	if accept {
		status = models.IntakeStatusAccepted
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var app models.TeamApplication
		if err := tx.Where("id = ?", appID).First(&app).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return referral.ErrNotFound
			}
			return fmt.Errorf("error loading team application: %w", err)
		}

		if app.Status != models.IntakeStatusNew {
			return referral.ErrInvalidTransition
		}
		if err := tx.Model(&app).Update("status", status).Error; err != nil {
			return fmt.Errorf("error reviewing team application: %w", err)
		}
		return nil
	})
}

// DeleteApplication removes a team application
func (s *Service) DeleteApplication(appID uuid.UUID) error {
	result := s.db.Where("id = ?", appID).Delete(&models.TeamApplication{})
	if result.Error != nil {
		return fmt.Errorf("error deleting team application: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return referral.ErrNotFound
	}
	return nil
}

// CreateConsultation registers a new consultation request
func (s *Service) CreateConsultation(userID int64, username, question string) (*models.ConsultationRequest, error) {
	req := models.ConsultationRequest{
		UserID:   userID,
		Username: username,
		Question: question,
		Status:   models.IntakeStatusNew,
	}
	if err := s.db.Create(&req).Error; err != nil {
		return nil, fmt.Errorf("error creating consultation request: %w", err)
	}

	s.log.Info("consultation request created",
		zap.String("request_id", req.ID.String()),
		zap.Int64("user_id", userID))
	return &req, nil
}

// Consultations lists consultation requests newest first, optionally by status
func (s *Service) Consultations(status string, limit int) ([]models.ConsultationRequest, error) {
	if limit <= 0 {
		limit = 50
	}
	query := s.db.Order("created_at DESC").Limit(limit)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var reqs []models.ConsultationRequest
	if err := query.Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("error listing consultation requests: %w", err)
	}
	return reqs, nil
}

// AnswerConsultation records the admin's answer on a new request
func (s *Service) AnswerConsultation(reqID uuid.UUID, answer string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var req models.ConsultationRequest
		if err := tx.Where("id = ?", reqID).First(&req).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return referral.ErrNotFound
			}
			return fmt.Errorf("error loading consultation request: %w", err)
		}

		if req.Status != models.IntakeStatusNew {
			return referral.ErrInvalidTransition
		}
		if err := tx.Model(&req).Updates(map[string]interface{}{
			"answer": answer,
			"status": models.IntakeStatusAnswered,
		}).Error; err != nil {
			return fmt.Errorf("error answering consultation request: %w", err)
		}
		return nil
	})
}

// DeleteConsultation removes a consultation request
func (s *Service) DeleteConsultation(reqID uuid.UUID) error {
	result := s.db.Where("id = ?", reqID).Delete(&models.ConsultationRequest{})
	if result.Error != nil {
		return fmt.Errorf("error deleting consultation request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return referral.ErrNotFound
	}
	return nil
}
