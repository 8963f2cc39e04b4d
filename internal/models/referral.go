package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payout methods supported for manual transfers
const (
	PayoutMethodCard   = "card"
	PayoutMethodSBP    = "sbp"
	PayoutMethodManual = "manual"
)

// Earning statuses
const (
	EarningStatusPending   = "pending"
	EarningStatusConfirmed = "confirmed"
	EarningStatusPaid      = "paid"
)

// Payout statuses
const (
	PayoutStatusRequested  = "requested"
	PayoutStatusProcessing = "processing"
	PayoutStatusCompleted  = "completed"
	PayoutStatusFailed     = "failed"
)

// ReferralUser represents a participant of the referral program.
// UserID is the Telegram user ID; it doubles as the business key that
// earnings and payouts reference.
type ReferralUser struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID       int64     `gorm:"uniqueIndex;not null" json:"user_id"`
	Username     string    `gorm:"type:varchar(100)" json:"username"`
	ReferralCode string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"referral_code"`
	ReferredBy   *int64    `gorm:"index" json:"referred_by"`

	// Payout profile for manual transfers
	PayoutMethod string `gorm:"type:varchar(20);default:'card'" json:"payout_method"`
	CardNumber   string `gorm:"type:varchar(20)" json:"card_number"` // stored masked
	PhoneNumber  string `gorm:"type:varchar(15)" json:"phone_number"`
	FullName     string `gorm:"type:varchar(200)" json:"full_name"`

	// Counters. Balance is maintained transactionally:
	// balance + total_paid + in-flight payout amounts == total_earned.
	TotalReferrals int     `gorm:"default:0" json:"total_referrals"`
	TotalEarned    float64 `gorm:"type:decimal(20,2);default:0" json:"total_earned"`
	TotalPaid      float64 `gorm:"type:decimal(20,2);default:0" json:"total_paid"`
	Balance        float64 `gorm:"type:decimal(20,2);default:0" json:"balance"`

	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a UUID primary key
func (u *ReferralUser) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// ReferralEarning represents a commission accrued for a paid order.
// OrderID carries a unique index so a single order can never produce
// two earnings, regardless of how many confirmations race.
type ReferralEarning struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ReferrerID     int64     `gorm:"index:idx_referral_earnings_referrer_status;not null" json:"referrer_id"`
	ReferredUserID int64     `gorm:"index;not null" json:"referred_user_id"`
	OrderID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"order_id"`

	OrderAmount    float64 `gorm:"type:decimal(20,2);not null" json:"order_amount"`
	CommissionRate float64 `gorm:"type:decimal(5,2);default:0.25" json:"commission_rate"`
	EarnedAmount   float64 `gorm:"type:decimal(20,2);not null" json:"earned_amount"`

	Status      string     `gorm:"type:varchar(20);index:idx_referral_earnings_referrer_status;default:'pending'" json:"status"`
	ConfirmedAt *time.Time `json:"confirmed_at"`
	PaidAt      *time.Time `json:"paid_at"`

	CreatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a UUID primary key
func (e *ReferralEarning) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// ReferralPayout represents a withdrawal request against a referrer's balance.
// The amount is debited from the balance when the request is created and
// credited back only if the payout fails.
type ReferralPayout struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ReferrerID int64     `gorm:"index:idx_referral_payouts_referrer_status;not null" json:"referrer_id"`

	Amount        float64 `gorm:"type:decimal(20,2);not null" json:"amount"`
	Method        string  `gorm:"type:varchar(20);not null" json:"method"`
	RecipientInfo string  `gorm:"type:varchar(200)" json:"recipient_info"`

	Status             string `gorm:"type:varchar(20);index:idx_referral_payouts_referrer_status;default:'requested'" json:"status"`
	AdminNotes         string `gorm:"type:text" json:"admin_notes"`
	TransactionDetails string `gorm:"type:text" json:"transaction_details"`

	ProcessedAt *time.Time     `json:"processed_at"`
	CompletedAt *time.Time     `json:"completed_at"`
	CreatedAt   time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a UUID primary key
func (p *ReferralPayout) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PayoutSettlement links a completed payout to the earnings it covered.
// EarningID is unique: an earning is settled by at most one payout.
type PayoutSettlement struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	PayoutID  uuid.UUID `gorm:"type:uuid;index;not null" json:"payout_id"`
	EarningID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"earning_id"`
	Amount    float64   `gorm:"type:decimal(20,2);not null" json:"amount"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// BeforeCreate assigns a UUID primary key
func (s *PayoutSettlement) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
