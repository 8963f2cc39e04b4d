package portfolio

import (
	"errors"
	"fmt"

	"github.com/botwerk/agency-backend/internal/models"
	"github.com/botwerk/agency-backend/internal/services/referral"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service manages the public project portfolio
type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewService creates a new portfolio service
func NewService(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log}
}

// Input carries the editable portfolio project fields
type Input struct {
	Title        string
	Description  string
	Details      string
	Cost         string
	VideoURL     string
	BotURL       string
	Technologies string
	Duration     string
}

// Create adds a project to the portfolio; the slug is derived from the title
func (s *Service) Create(input Input) (*models.PortfolioProject, error) {
	project := models.PortfolioProject{
		Slug:         slug.Make(input.Title),
		Title:        input.Title,
		Description:  input.Description,
		Details:      input.Details,
		Cost:         input.Cost,
		VideoURL:     input.VideoURL,
		BotURL:       input.BotURL,
		Technologies: input.Technologies,
		Duration:     input.Duration,
	}
	if err := s.db.Create(&project).Error; err != nil {
		return nil, fmt.Errorf("error creating portfolio project: %w", err)
	}

	s.log.Info("portfolio project created",
		zap.String("project_id", project.ID.String()),
		zap.String("slug", project.Slug))
	return &project, nil
}

// Projects lists portfolio projects, newest first
func (s *Service) Projects(limit int) ([]models.PortfolioProject, error) {
	if limit <= 0 {
		limit = 50
	}

	var projects []models.PortfolioProject
	if err := s.db.Order("created_at DESC").Limit(limit).Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("error listing portfolio projects: %w", err)
	}
	return projects, nil
}

// Project returns a single project by ID
func (s *Service) Project(projectID uuid.UUID) (*models.PortfolioProject, error) {
	var project models.PortfolioProject
	if err := s.db.Where("id = ?", projectID).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, referral.ErrNotFound
		}
		return nil, fmt.Errorf("error loading portfolio project: %w", err)
	}
	return &project, nil
}

// ProjectBySlug returns a single project by slug
func (s *Service) ProjectBySlug(projectSlug string) (*models.PortfolioProject, error) {
	var project models.PortfolioProject
	if err := s.db.Where("slug = ?", projectSlug).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, referral.ErrNotFound
		}
		return nil, fmt.Errorf("error loading portfolio project: %w", err)
	}
	return &project, nil
}

// Update rewrites a project's fields; the slug follows a title change
func (s *Service) Update(projectID uuid.UUID, input Input) (*models.PortfolioProject, error) {
	project, err := s.Project(projectID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"title":        input.Title,
		"slug":         slug.Make(input.Title),
		"description":  input.Description,
		"details":      input.Details,
		"cost":         input.Cost,
		"video_url":    input.VideoURL,
		"bot_url":      input.BotURL,
		"technologies": input.Technologies,
		"duration":     input.Duration,
	}
	if err := s.db.Model(project).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("error updating portfolio project: %w", err)
	}
	return project, nil
}

// Delete removes a project from the portfolio
func (s *Service) Delete(projectID uuid.UUID) error {
	result := s.db.Where("id = ?", projectID).Delete(&models.PortfolioProject{})
	if result.Error != nil {
		return fmt.Errorf("error deleting portfolio project: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return referral.ErrNotFound
	}
	return nil
}
