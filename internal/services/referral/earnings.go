package referral

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/botwerk/agency-backend/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// round2 rounds a monetary amount to two decimal places
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// AccrueInTx records the commission for a paid order inside the caller's
// transaction. Returns (nil, nil) when the ordering user has no referrer,
// which is the common case. The earning insert and the referrer credit are
// one atomic unit; a duplicate order_id is an idempotent no-op that
// returns the already-existing earning.
func (s *Service) AccrueInTx(tx *gorm.DB, referredUserID int64, orderID uuid.UUID, orderAmount float64) (*models.ReferralEarning, error) {
	var user models.ReferralUser
	err := tx.Where("user_id = ?", referredUserID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error finding referral user: %w", err)
	}
	if user.ReferredBy == nil {
		return nil, nil
	}

	var referrer models.ReferralUser
	err = forUpdate(tx).Where("user_id = ?", *user.ReferredBy).First(&referrer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Warn("referrer record missing, skipping accrual",
			zap.Int64("referred_user_id", referredUserID),
			zap.Int64("referrer_id", *user.ReferredBy))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error locking referrer: %w", err)
	}

	// A concurrent confirmation may have already accrued this order. The
	// referrer row lock serializes accruals, so once it is held this check
	// is race-free.
	var existing models.ReferralEarning
	err = tx.Where("order_id = ?", orderID).First(&existing).Error
	if err == nil {
		s.log.Info("duplicate accrual skipped",
			zap.String("order_id", orderID.String()),
			zap.Int64("referrer_id", referrer.UserID))
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("error checking for existing earning: %w", err)
	}

	earned := round2(orderAmount * s.cfg.CommissionRate)
	now := time.Now()
	earning := models.ReferralEarning{
		ReferrerID:     referrer.UserID,
		ReferredUserID: referredUserID,
		OrderID:        orderID,
		OrderAmount:    orderAmount,
		CommissionRate: s.cfg.CommissionRate,
		EarnedAmount:   earned,
		Status:         models.EarningStatusConfirmed,
		ConfirmedAt:    &now,
	}

	// The nested transaction emits a savepoint, so a unique violation on
	// order_id does not abort the caller's transaction on Postgres and the
	// lookup below still runs.
	if err := tx.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&earning).Error
	}); err != nil {
		if isUniqueViolation(err) {
			if findErr := tx.Where("order_id = ?", orderID).First(&existing).Error; findErr != nil {
				return nil, fmt.Errorf("%w: %v", ErrDuplicateAccrual, findErr)
			}
			s.log.Info("duplicate accrual skipped",
				zap.String("order_id", orderID.String()),
				zap.Int64("referrer_id", referrer.UserID))
			return &existing, nil
		}
		return nil, fmt.Errorf("error creating earning: %w", err)
	}

	if err := tx.Model(&referrer).Updates(map[string]interface{}{
		"total_earned": referrer.TotalEarned + earned,
		"balance":      referrer.Balance + earned,
	}).Error; err != nil {
		return nil, fmt.Errorf("error crediting referrer: %w", err)
	}

	s.log.Info("referral earning accrued",
		zap.Int64("referrer_id", referrer.UserID),
		zap.String("order_id", orderID.String()),
		zap.Float64("earned_amount", earned))
	return &earning, nil
}

// Earnings returns the referrer's earnings, newest first, optionally
// filtered by status.
func (s *Service) Earnings(referrerID int64, status string) ([]models.ReferralEarning, error) {
	query := s.db.Where("referrer_id = ?", referrerID).Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var earnings []models.ReferralEarning
	if err := query.Find(&earnings).Error; err != nil {
		return nil, fmt.Errorf("error listing earnings: %w", err)
	}
	return earnings, nil
}

// PendingEarnings returns confirmed earnings awaiting settlement, oldest first
func (s *Service) PendingEarnings() ([]models.ReferralEarning, error) {
	var earnings []models.ReferralEarning
	if err := s.db.Where("status = ?", models.EarningStatusConfirmed).
		Order("created_at ASC").
		Find(&earnings).Error; err != nil {
		return nil, fmt.Errorf("error listing pending earnings: %w", err)
	}
	return earnings, nil
}
