package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/botwerk/agency-backend/internal/models"
	"github.com/botwerk/agency-backend/internal/services/intake"
	"github.com/botwerk/agency-backend/internal/services/referral"
)

// IntakeHandler handles team applications and consultation requests
type IntakeHandler struct {
	intake *intake.Service
}

// NewIntakeHandler creates a new intake handler
func NewIntakeHandler(svc *intake.Service) *IntakeHandler {
	return &IntakeHandler{intake: svc}
}

// CreateApplication submits a new team application
func (h *IntakeHandler) CreateApplication(c *gin.Context) {
	var input struct {
		UserID     int64  `json:"user_id" binding:"required"`
		Username   string `json:"username"`
		FullName   string `json:"full_name" binding:"required"`
		Age        string `json:"age"`
		Experience string `json:"experience"`
		Stack      string `json:"stack"`
		About      string `json:"about"`
		Motivation string `json:"motivation"`
		Role       string `json:"role"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	app, err := h.intake.CreateApplication(input.UserID, input.Username, intake.ApplicationInput{
		FullName:   input.FullName,
		Age:        input.Age,
		Experience: input.Experience,
		Stack:      input.Stack,
		About:      input.About,
		Motivation: input.Motivation,
		Role:       input.Role,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create application"})
		return
	}

	c.JSON(http.StatusCreated, app)
}

// ListApplications returns team applications, optionally filtered by status
func (h *IntakeHandler) ListApplications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	apps, err := h.intake.Applications(c.Query("status"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get applications"})
		return
	}

	c.JSON(http.StatusOK, apps)
}

// ReviewApplication accepts or declines a team application
func (h *IntakeHandler) ReviewApplication(c *gin.Context) {
	appID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application ID"})
		return
	}

	var input struct {
		Accept *bool `json:"accept" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.intake.ReviewApplication(appID, *input.Accept); err != nil {
		h.respondIntakeError(c, err, "application", "failed to review application")
		return
	}

	status := models.IntakeStatusRejected
	if *input.Accept {
		status = models.IntakeStatusAccepted
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// DeleteApplication removes a team application
func (h *IntakeHandler) DeleteApplication(c *gin.Context) {
	appID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application ID"})
		return
	}

	if err := h.intake.DeleteApplication(appID); err != nil {
		h.respondIntakeError(c, err, "application", "failed to delete application")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// CreateConsultation submits a consultation question
func (h *IntakeHandler) CreateConsultation(c *gin.Context) {
	var input struct {
		UserID   int64  `json:"user_id" binding:"required"`
		Username string `json:"username"`
		Question string `json:"question" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.intake.CreateConsultation(input.UserID, input.Username, input.Question)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create consultation"})
		return
	}

	c.JSON(http.StatusCreated, req)
}

// ListConsultations returns consultation requests, optionally filtered by status
func (h *IntakeHandler) ListConsultations(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	reqs, err := h.intake.Consultations(c.Query("status"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get consultations"})
		return
	}

	c.JSON(http.StatusOK, reqs)
}

// AnswerConsultation records an answer to a consultation question
func (h *IntakeHandler) AnswerConsultation(c *gin.Context) {
	reqID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid consultation ID"})
		return
	}

	var input struct {
		Answer string `json:"answer" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.intake.AnswerConsultation(reqID, input.Answer); err != nil {
		h.respondIntakeError(c, err, "consultation", "failed to answer consultation")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": models.IntakeStatusAnswered})
}

// DeleteConsultation removes a consultation request
func (h *IntakeHandler) DeleteConsultation(c *gin.Context) {
	reqID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid consultation ID"})
		return
	}

	if err := h.intake.DeleteConsultation(reqID); err != nil {
		h.respondIntakeError(c, err, "consultation", "failed to delete consultation")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *IntakeHandler) respondIntakeError(c *gin.Context, err error, kind, fallback string) {
	switch {
	case errors.Is(err, referral.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": kind + " not found"})
	case errors.Is(err, referral.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": kind + " has already been processed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
