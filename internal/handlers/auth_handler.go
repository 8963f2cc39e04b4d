package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/botwerk/agency-backend/internal/config"
	"github.com/botwerk/agency-backend/internal/utils"
)

// AuthHandler handles admin authentication
type AuthHandler struct {
	cfg config.JWTConfig
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(cfg config.JWTConfig) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

// Login verifies the admin password and issues a JWT
func (h *AuthHandler) Login(c *gin.Context) {
	var input struct {
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.cfg.AdminPasswordHash == "" || !utils.CheckPasswordHash(input.Password, h.cfg.AdminPasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	ttl := time.Duration(h.cfg.Expiration) * time.Hour
	token, err := utils.GenerateToken("admin", true, ttl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int(ttl.Seconds()),
	})
}
