package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/botwerk/agency-backend/internal/config"
	"github.com/botwerk/agency-backend/internal/jobs"
	"github.com/botwerk/agency-backend/internal/metrics"
	"github.com/botwerk/agency-backend/internal/queue"
	"github.com/botwerk/agency-backend/internal/services/referral"
)

// ReferralHandler handles referral program requests
type ReferralHandler struct {
	referrals *referral.Service
	queue     *queue.Queue
	metrics   *metrics.Metrics
	cfg       config.ReferralConfig
	log       *zap.Logger
}

// NewReferralHandler creates a new referral handler
func NewReferralHandler(referrals *referral.Service, q *queue.Queue, m *metrics.Metrics, cfg config.ReferralConfig, log *zap.Logger) *ReferralHandler {
	return &ReferralHandler{
		referrals: referrals,
		queue:     q,
		metrics:   m,
		cfg:       cfg,
		log:       log,
	}
}

// Register registers a Telegram user in the referral program
func (h *ReferralHandler) Register(c *gin.Context) {
	var input struct {
		UserID   int64  `json:"user_id" binding:"required"`
		Username string `json:"username"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.referrals.Register(input.UserID, input.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// Link attributes a user to a referrer by referral code
func (h *ReferralHandler) Link(c *gin.Context) {
	var input struct {
		UserID   int64  `json:"user_id" binding:"required"`
		Code     string `json:"code" binding:"required"`
		Username string `json:"username"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	linked, err := h.referrals.LinkReferral(input.UserID, input.Code, input.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to link referral"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"linked": linked})
}

// Stats returns a referrer's counters and balance
func (h *ReferralHandler) Stats(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	stats, err := h.referrals.Stats(userID)
	if err != nil {
		if errors.Is(err, referral.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// UpdatePayoutInfo saves a referrer's payout details
func (h *ReferralHandler) UpdatePayoutInfo(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var input struct {
		Method      string `json:"method" binding:"required"`
		CardNumber  string `json:"card_number"`
		PhoneNumber string `json:"phone_number"`
		FullName    string `json:"full_name"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.referrals.UpdatePayoutInfo(userID, input.Method, input.CardNumber, input.PhoneNumber, input.FullName); err != nil {
		if errors.Is(err, referral.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update payout info"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": true})
}

// RequestPayout creates a payout request and debits the balance
func (h *ReferralHandler) RequestPayout(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var input struct {
		Amount        float64 `json:"amount" binding:"required"`
		Method        string  `json:"method"`
		RecipientInfo string  `json:"recipient_info"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Amount < h.cfg.MinPayout {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount is below the minimum payout"})
		return
	}

	payout, err := h.referrals.RequestPayout(userID, input.Amount, input.Method, input.RecipientInfo)
	if err != nil {
		switch {
		case errors.Is(err, referral.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, referral.ErrInsufficientBalance):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "insufficient balance"})
		case errors.Is(err, referral.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to request payout"})
		}
		return
	}

	h.metrics.RecordPayoutRequested()
	h.enqueuePayoutNotification(queue.JobTypePayoutRequested, payout.ReferrerID, payout.ID.String(), payout.Amount, payout.Method, "")

	c.JSON(http.StatusCreated, payout)
}

// Earnings lists a referrer's commissions, optionally filtered by status
func (h *ReferralHandler) Earnings(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	earnings, err := h.referrals.Earnings(userID, c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get earnings"})
		return
	}

	c.JSON(http.StatusOK, earnings)
}

// Payouts lists a referrer's payout requests
func (h *ReferralHandler) Payouts(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	payouts, err := h.referrals.Payouts(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get payouts"})
		return
	}

	c.JSON(http.StatusOK, payouts)
}

func (h *ReferralHandler) enqueuePayoutNotification(jobType queue.JobType, userID int64, payoutID string, amount float64, method, reason string) {
	payload := jobs.PayoutNotificationPayload{
		PayoutID: payoutID,
		UserID:   userID,
		Amount:   amount,
		Method:   method,
		Reason:   reason,
	}
	if _, err := h.queue.Enqueue(context.Background(), jobType, payload); err != nil {
		h.log.Error("failed to enqueue payout notification", zap.String("payout_id", payoutID), zap.Error(err))
	}
}

// parseUserID reads the Telegram user ID from the path
func parseUserID(c *gin.Context) (int64, bool) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return 0, false
	}
	return userID, true
}
