package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/botwerk/agency-backend/internal/queue"
	"github.com/botwerk/agency-backend/internal/services/notify"
)

// OrderNotificationPayload carries the data for order lifecycle notifications
type OrderNotificationPayload struct {
	OrderID     string   `json:"order_id"`
	UserID      int64    `json:"user_id"`
	OrderType   string   `json:"order_type"`
	Description string   `json:"description"`
	FinalPrice  *float64 `json:"final_price,omitempty"`
}

// EarningNotificationPayload notifies a referrer about a new commission
type EarningNotificationPayload struct {
	ReferrerID   int64   `json:"referrer_id"`
	EarnedAmount float64 `json:"earned_amount"`
	OrderAmount  float64 `json:"order_amount"`
	ReferredUser int64   `json:"referred_user"`
}

// PayoutNotificationPayload carries payout status change data
type PayoutNotificationPayload struct {
	PayoutID string  `json:"payout_id"`
	UserID   int64   `json:"user_id"`
	Amount   float64 `json:"amount"`
	Method   string  `json:"method"`
	Reason   string  `json:"reason,omitempty"`
}

// NotificationJobs wires queue jobs to Telegram delivery
type NotificationJobs struct {
	notifier *notify.Notifier
	log      *zap.Logger
}

// NewNotificationJobs creates the notification job handlers
func NewNotificationJobs(notifier *notify.Notifier, log *zap.Logger) *NotificationJobs {
	return &NotificationJobs{notifier: notifier, log: log}
}

// Register binds all notification handlers onto the worker
func (n *NotificationJobs) Register(w *queue.Worker) {
	w.Register(queue.JobTypeOrderAccepted, n.handleOrderAccepted)
	w.Register(queue.JobTypePaymentConfirmed, n.handlePaymentConfirmed)
	w.Register(queue.JobTypeEarningAccrued, n.handleEarningAccrued)
	w.Register(queue.JobTypePayoutRequested, n.handlePayoutRequested)
	w.Register(queue.JobTypePayoutApproved, n.handlePayoutApproved)
	w.Register(queue.JobTypePayoutRejected, n.handlePayoutRejected)
	w.Register(queue.JobTypePayoutCompleted, n.handlePayoutCompleted)
}

func (n *NotificationJobs) handleOrderAccepted(ctx context.Context, job *queue.Job) error {
	var p OrderNotificationPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return fmt.Errorf("invalid order notification payload: %w", err)
	}

	text := fmt.Sprintf("✅ Your <b>%s</b> order has been accepted!\nWe will contact you shortly to discuss the details.", p.OrderType)
	return n.notifier.SendToUser(p.UserID, text)
}

func (n *NotificationJobs) handlePaymentConfirmed(ctx context.Context, job *queue.Job) error {
	var p OrderNotificationPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return fmt.Errorf("invalid order notification payload: %w", err)
	}

	price := 0.0
	if p.FinalPrice != nil {
		price = *p.FinalPrice
	}
	text := fmt.Sprintf("💳 Payment of <b>%.2f ₽</b> received. Thank you!\nYour order is now in progress.", price)
	return n.notifier.SendToUser(p.UserID, text)
}

func (n *NotificationJobs) handleEarningAccrued(ctx context.Context, job *queue.Job) error {
	var p EarningNotificationPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return fmt.Errorf("invalid earning notification payload: %w", err)
	}

	text := fmt.Sprintf("🎉 Referral bonus!\nYou earned <b>%.2f ₽</b> from an order by your referral.", p.EarnedAmount)
	return n.notifier.SendToUser(p.ReferrerID, text)
}

func (n *NotificationJobs) handlePayoutRequested(ctx context.Context, job *queue.Job) error {
	var p PayoutNotificationPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return fmt.Errorf("invalid payout notification payload: %w", err)
	}

	text := fmt.Sprintf("💸 New payout request\nUser: <code>%d</code>\nAmount: <b>%.2f ₽</b>\nMethod: %s", p.UserID, p.Amount, p.Method)
	return n.notifier.NotifyAdmins(text)
}

func (n *NotificationJobs) handlePayoutApproved(ctx context.Context, job *queue.Job) error {
	var p PayoutNotificationPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return fmt.Errorf("invalid payout notification payload: %w", err)
	}

	text := fmt.Sprintf("✅ Your payout request of <b>%.2f ₽</b> is being processed.", p.Amount)
	return n.notifier.SendToUser(p.UserID, text)
}

func (n *NotificationJobs) handlePayoutRejected(ctx context.Context, job *queue.Job) error {
	var p PayoutNotificationPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return fmt.Errorf("invalid payout notification payload: %w", err)
	}

	text := fmt.Sprintf("❌ Your payout request of <b>%.2f ₽</b> was declined.\nThe amount has been returned to your balance.", p.Amount)
	if p.Reason != "" {
		text += fmt.Sprintf("\nReason: %s", p.Reason)
	}
	return n.notifier.SendToUser(p.UserID, text)
}

func (n *NotificationJobs) handlePayoutCompleted(ctx context.Context, job *queue.Job) error {
	var p PayoutNotificationPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return fmt.Errorf("invalid payout notification payload: %w", err)
	}

	text := fmt.Sprintf("✅ Payout of <b>%.2f ₽</b> has been sent via %s.", p.Amount, p.Method)
	return n.notifier.SendToUser(p.UserID, text)
}
