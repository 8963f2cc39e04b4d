package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botwerk/agency-backend/internal/config"
	"github.com/botwerk/agency-backend/internal/utils"
)

func setupAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := utils.HashPassword("correct-password")
	require.NoError(t, err)

	handler := NewAuthHandler(config.JWTConfig{
		Expiration:        24,
		AdminPasswordHash: hash,
	})

	router := gin.New()
	router.POST("/api/auth/login", handler.Login)
	return router
}

func postLogin(t *testing.T, router *gin.Engine, body map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLoginIssuesValidToken(t *testing.T) {
	router := setupAuthRouter(t)

	w := postLogin(t, router, map[string]string{"password": "correct-password"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expires_in"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, 24*60*60, resp.ExpiresIn)

	claims, err := utils.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, "admin", claims.Subject)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	router := setupAuthRouter(t)

	w := postLogin(t, router, map[string]string{"password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginRequiresPassword(t *testing.T) {
	router := setupAuthRouter(t)

	w := postLogin(t, router, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
