package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/botwerk/agency-backend/internal/services/portfolio"
	"github.com/botwerk/agency-backend/internal/services/referral"
)

// PortfolioHandler handles portfolio project requests
type PortfolioHandler struct {
	portfolio *portfolio.Service
}

// NewPortfolioHandler creates a new portfolio handler
func NewPortfolioHandler(svc *portfolio.Service) *PortfolioHandler {
	return &PortfolioHandler{portfolio: svc}
}

type portfolioInput struct {
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
	Details      string `json:"details"`
	Cost         string `json:"cost"`
	VideoURL     string `json:"video_url"`
	BotURL       string `json:"bot_url"`
	Technologies string `json:"technologies"`
	Duration     string `json:"duration"`
}

func (in portfolioInput) toServiceInput() portfolio.Input {
	return portfolio.Input{
		Title:        in.Title,
		Description:  in.Description,
		Details:      in.Details,
		Cost:         in.Cost,
		VideoURL:     in.VideoURL,
		BotURL:       in.BotURL,
		Technologies: in.Technologies,
		Duration:     in.Duration,
	}
}

// Create adds a project to the portfolio
func (h *PortfolioHandler) Create(c *gin.Context) {
	var input portfolioInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.portfolio.Create(input.toServiceInput())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create project"})
		return
	}

	c.JSON(http.StatusCreated, project)
}

// List returns portfolio projects
func (h *PortfolioHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	projects, err := h.portfolio.Projects(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get projects"})
		return
	}

	c.JSON(http.StatusOK, projects)
}

// Get returns a project by ID or slug
func (h *PortfolioHandler) Get(c *gin.Context) {
	idOrSlug := c.Param("id")

	if projectID, err := uuid.Parse(idOrSlug); err == nil {
		project, err := h.portfolio.Project(projectID)
		if err != nil {
			h.respondPortfolioError(c, err)
			return
		}
		c.JSON(http.StatusOK, project)
		return
	}

	project, err := h.portfolio.ProjectBySlug(idOrSlug)
	if err != nil {
		h.respondPortfolioError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// Update replaces a project's content
func (h *PortfolioHandler) Update(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project ID"})
		return
	}

	var input portfolioInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.portfolio.Update(projectID, input.toServiceInput())
	if err != nil {
		h.respondPortfolioError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// Delete removes a project from the portfolio
func (h *PortfolioHandler) Delete(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project ID"})
		return
	}

	if err := h.portfolio.Delete(projectID); err != nil {
		h.respondPortfolioError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *PortfolioHandler) respondPortfolioError(c *gin.Context, err error) {
	if errors.Is(err, referral.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "portfolio operation failed"})
}
