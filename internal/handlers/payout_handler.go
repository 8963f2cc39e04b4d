package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/botwerk/agency-backend/internal/jobs"
	"github.com/botwerk/agency-backend/internal/metrics"
	"github.com/botwerk/agency-backend/internal/queue"
	"github.com/botwerk/agency-backend/internal/services/referral"
)

// PayoutHandler handles admin payout processing
type PayoutHandler struct {
	referrals *referral.Service
	queue     *queue.Queue
	metrics   *metrics.Metrics
	log       *zap.Logger
}

// NewPayoutHandler creates a new payout handler
func NewPayoutHandler(referrals *referral.Service, q *queue.Queue, m *metrics.Metrics, log *zap.Logger) *PayoutHandler {
	return &PayoutHandler{
		referrals: referrals,
		queue:     q,
		metrics:   m,
		log:       log,
	}
}

// Pending lists payout requests awaiting processing
func (h *PayoutHandler) Pending(c *gin.Context) {
	payouts, err := h.referrals.PendingPayouts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get pending payouts"})
		return
	}

	c.JSON(http.StatusOK, payouts)
}

// PendingEarnings lists confirmed commissions not yet settled by a payout
func (h *PayoutHandler) PendingEarnings(c *gin.Context) {
	earnings, err := h.referrals.PendingEarnings()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get pending earnings"})
		return
	}

	c.JSON(http.StatusOK, earnings)
}

// Get returns a single payout by ID
func (h *PayoutHandler) Get(c *gin.Context) {
	payoutID, ok := parsePayoutID(c)
	if !ok {
		return
	}

	payout, err := h.referrals.Payout(payoutID)
	if err != nil {
		if errors.Is(err, referral.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "payout not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get payout"})
		return
	}

	c.JSON(http.StatusOK, payout)
}

// Approve moves a requested payout into processing
func (h *PayoutHandler) Approve(c *gin.Context) {
	payoutID, ok := parsePayoutID(c)
	if !ok {
		return
	}

	if err := h.referrals.ApprovePayout(payoutID); err != nil {
		h.respondTransitionError(c, err, "failed to approve payout")
		return
	}

	h.notifyPayout(c, payoutID, queue.JobTypePayoutApproved, "")
	c.JSON(http.StatusOK, gin.H{"status": "processing"})
}

// Reject fails a payout and returns the amount to the balance
func (h *PayoutHandler) Reject(c *gin.Context) {
	payoutID, ok := parsePayoutID(c)
	if !ok {
		return
	}

	var input struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&input)

	if err := h.referrals.RejectPayout(payoutID, input.Reason); err != nil {
		h.respondTransitionError(c, err, "failed to reject payout")
		return
	}

	h.notifyPayout(c, payoutID, queue.JobTypePayoutRejected, input.Reason)
	c.JSON(http.StatusOK, gin.H{"status": "failed"})
}

// Complete finalizes a payout and settles confirmed earnings against it
func (h *PayoutHandler) Complete(c *gin.Context) {
	payoutID, ok := parsePayoutID(c)
	if !ok {
		return
	}

	var input struct {
		TransactionDetails string `json:"transaction_details"`
	}
	_ = c.ShouldBindJSON(&input)

	if err := h.referrals.CompletePayout(payoutID, input.TransactionDetails); err != nil {
		h.respondTransitionError(c, err, "failed to complete payout")
		return
	}

	if payout, err := h.referrals.Payout(payoutID); err == nil {
		h.metrics.RecordPayoutCompleted(payout.Amount)
	}
	h.notifyPayout(c, payoutID, queue.JobTypePayoutCompleted, "")
	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}

func (h *PayoutHandler) respondTransitionError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, referral.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "payout not found"})
	case errors.Is(err, referral.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "payout is not in a valid state for this action"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func (h *PayoutHandler) notifyPayout(c *gin.Context, payoutID uuid.UUID, jobType queue.JobType, reason string) {
	payout, err := h.referrals.Payout(payoutID)
	if err != nil {
		h.log.Error("failed to load payout for notification", zap.String("payout_id", payoutID.String()), zap.Error(err))
		return
	}

	payload := jobs.PayoutNotificationPayload{
		PayoutID: payout.ID.String(),
		UserID:   payout.ReferrerID,
		Amount:   payout.Amount,
		Method:   payout.Method,
		Reason:   reason,
	}
	if _, err := h.queue.Enqueue(context.Background(), jobType, payload); err != nil {
		h.log.Error("failed to enqueue payout notification", zap.String("payout_id", payoutID.String()), zap.Error(err))
	}
}

func parsePayoutID(c *gin.Context) (uuid.UUID, bool) {
	payoutID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payout ID"})
		return uuid.Nil, false
	}
	return payoutID, true
}
