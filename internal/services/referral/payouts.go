package referral

import (
	"errors"
	"fmt"
	"time"

	"github.com/botwerk/agency-backend/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RequestPayout creates a withdrawal request and debits the referrer's
// balance in the same transaction, so overlapping requests can never
// jointly exceed the balance. The minimum-payout threshold is the caller's
// concern; the ledger rejects only non-positive and over-balance amounts.
func (s *Service) RequestPayout(referrerID int64, amount float64, method, recipientInfo string) (*models.ReferralPayout, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var payout models.ReferralPayout
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var referrer models.ReferralUser
		if err := forUpdate(tx).Where("user_id = ?", referrerID).First(&referrer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("error locking referrer: %w", err)
		}

		if amount > referrer.Balance {
			return ErrInsufficientBalance
		}

		if method == "" {
			method = referrer.PayoutMethod
		}
		payout = models.ReferralPayout{
			ReferrerID:    referrerID,
			Amount:        amount,
			Method:        method,
			RecipientInfo: recipientInfo,
			Status:        models.PayoutStatusRequested,
		}
		if err := tx.Create(&payout).Error; err != nil {
			return fmt.Errorf("error creating payout: %w", err)
		}

		if err := tx.Model(&referrer).
			Update("balance", referrer.Balance-amount).Error; err != nil {
			return fmt.Errorf("error debiting balance: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payout requested",
		zap.Int64("referrer_id", referrerID),
		zap.String("payout_id", payout.ID.String()),
		zap.Float64("amount", amount))
	return &payout, nil
}

// ApprovePayout moves a payout from requested to processing
func (s *Service) ApprovePayout(payoutID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var payout models.ReferralPayout
		if err := forUpdate(tx).Where("id = ?", payoutID).First(&payout).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("error loading payout: %w", err)
		}

		if payout.Status != models.PayoutStatusRequested {
			return ErrInvalidTransition
		}

		now := time.Now()
		if err := tx.Model(&payout).Updates(map[string]interface{}{
			"status":       models.PayoutStatusProcessing,
			"processed_at": &now,
		}).Error; err != nil {
			return fmt.Errorf("error approving payout: %w", err)
		}
		return nil
	})
}

// RejectPayout fails a requested or processing payout and credits the
// debited amount back to the referrer's balance.
func (s *Service) RejectPayout(payoutID uuid.UUID, reason string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var payout models.ReferralPayout
		if err := forUpdate(tx).Where("id = ?", payoutID).First(&payout).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("error loading payout: %w", err)
		}

		if payout.Status != models.PayoutStatusRequested && payout.Status != models.PayoutStatusProcessing {
			return ErrInvalidTransition
		}

		if err := tx.Model(&payout).Updates(map[string]interface{}{
			"status":      models.PayoutStatusFailed,
			"admin_notes": reason,
		}).Error; err != nil {
			return fmt.Errorf("error rejecting payout: %w", err)
		}

		var referrer models.ReferralUser
		if err := forUpdate(tx).Where("user_id = ?", payout.ReferrerID).First(&referrer).Error; err != nil {
			return fmt.Errorf("error locking referrer: %w", err)
		}
		if err := tx.Model(&referrer).
			Update("balance", referrer.Balance+payout.Amount).Error; err != nil {
			return fmt.Errorf("error refunding balance: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("payout rejected", zap.String("payout_id", payoutID.String()), zap.String("reason", reason))
	return nil
}

// CompletePayout finalizes a payout: the referrer's total_paid grows by
// the payout amount (the balance was already debited at request time) and
// the oldest confirmed earnings are settled against it, each fully-covered
// earning becoming paid with an explicit settlement record.
func (s *Service) CompletePayout(payoutID uuid.UUID, transactionDetails string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var payout models.ReferralPayout
		if err := forUpdate(tx).Where("id = ?", payoutID).First(&payout).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("error loading payout: %w", err)
		}

		if payout.Status != models.PayoutStatusRequested && payout.Status != models.PayoutStatusProcessing {
			return ErrInvalidTransition
		}

		now := time.Now()
		updates := map[string]interface{}{
			"status":       models.PayoutStatusCompleted,
			"completed_at": &now,
		}
		if transactionDetails != "" {
			updates["transaction_details"] = transactionDetails
		}
		if err := tx.Model(&payout).Updates(updates).Error; err != nil {
			return fmt.Errorf("error completing payout: %w", err)
		}

		var referrer models.ReferralUser
		if err := forUpdate(tx).Where("user_id = ?", payout.ReferrerID).First(&referrer).Error; err != nil {
			return fmt.Errorf("error locking referrer: %w", err)
		}
		if err := tx.Model(&referrer).
			Update("total_paid", referrer.TotalPaid+payout.Amount).Error; err != nil {
			return fmt.Errorf("error updating total paid: %w", err)
		}

		return s.settleEarnings(tx, &payout)
	})
	if err != nil {
		return err
	}

	s.log.Info("payout completed", zap.String("payout_id", payoutID.String()))
	return nil
}

// settleEarnings marks the referrer's oldest confirmed earnings as paid,
// up to the payout amount, recording one settlement row per earning. An
// earning only partially covered by the remaining amount stays confirmed.
func (s *Service) settleEarnings(tx *gorm.DB, payout *models.ReferralPayout) error {
	var earnings []models.ReferralEarning
	if err := tx.Where("referrer_id = ? AND status = ?", payout.ReferrerID, models.EarningStatusConfirmed).
		Order("created_at ASC").
		Find(&earnings).Error; err != nil {
		return fmt.Errorf("error loading confirmed earnings: %w", err)
	}

	remaining := payout.Amount
	now := time.Now()
	for i := range earnings {
		earning := &earnings[i]
		if earning.EarnedAmount > remaining+0.005 {
			break
		}

		if err := tx.Model(earning).Updates(map[string]interface{}{
			"status":  models.EarningStatusPaid,
			"paid_at": &now,
		}).Error; err != nil {
			return fmt.Errorf("error settling earning: %w", err)
		}

		settlement := models.PayoutSettlement{
			PayoutID:  payout.ID,
			EarningID: earning.ID,
			Amount:    earning.EarnedAmount,
		}
		if err := tx.Create(&settlement).Error; err != nil {
			return fmt.Errorf("error recording settlement: %w", err)
		}

		remaining = round2(remaining - earning.EarnedAmount)
		if remaining <= 0 {
			break
		}
	}
	return nil
}

// Payout returns a single payout by ID
func (s *Service) Payout(payoutID uuid.UUID) (*models.ReferralPayout, error) {
	var payout models.ReferralPayout
	if err := s.db.Where("id = ?", payoutID).First(&payout).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error loading payout: %w", err)
	}
	return &payout, nil
}

// PendingPayouts returns requested payouts awaiting admin action, oldest first
func (s *Service) PendingPayouts() ([]models.ReferralPayout, error) {
	var payouts []models.ReferralPayout
	if err := s.db.Where("status = ?", models.PayoutStatusRequested).
		Order("created_at ASC").
		Find(&payouts).Error; err != nil {
		return nil, fmt.Errorf("error listing pending payouts: %w", err)
	}
	return payouts, nil
}

// Payouts returns all payouts of a referrer, newest first
func (s *Service) Payouts(referrerID int64) ([]models.ReferralPayout, error) {
	var payouts []models.ReferralPayout
	if err := s.db.Where("referrer_id = ?", referrerID).
		Order("created_at DESC").
		Find(&payouts).Error; err != nil {
		return nil, fmt.Errorf("error listing payouts: %w", err)
	}
	return payouts, nil
}
