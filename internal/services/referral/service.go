package referral

import (
	"errors"
	"fmt"
	"strings"

	"github.com/botwerk/agency-backend/internal/config"
	"github.com/botwerk/agency-backend/internal/models"
	"github.com/botwerk/agency-backend/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service owns the referral ledger: identities, earnings and payouts.
// Every balance mutation runs in a single transaction with the affected
// ReferralUser row locked, so concurrent admin actions cannot lose updates.
type Service struct {
	db  *gorm.DB
	log *zap.Logger
	cfg config.ReferralConfig
}

// NewService creates a new referral ledger service
func NewService(db *gorm.DB, log *zap.Logger, cfg config.ReferralConfig) *Service {
	return &Service{db: db, log: log, cfg: cfg}
}

// forUpdate applies a row lock on Postgres. SQLite (used in tests) has no
// FOR UPDATE; its writes are serialized by the single writer anyway.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// isUniqueViolation reports whether err is a unique-constraint violation
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}

// Register returns the existing referral record for the user or creates a
// fresh one with a new unique code. Idempotent.
func (s *Service) Register(userID int64, username string) (*models.ReferralUser, error) {
	var user models.ReferralUser
	err := s.db.Where("user_id = ?", userID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("error finding referral user: %w", err)
	}

	return s.createUser(userID, username, nil)
}

// createUser inserts a referral user, regenerating the code on collision.
// A user_id collision means a concurrent Register won; return that row.
func (s *Service) createUser(userID int64, username string, referredBy *int64) (*models.ReferralUser, error) {
	for attempt := 0; attempt < codeMaxAttempts; attempt++ {
		user := models.ReferralUser{
			UserID:       userID,
			Username:     username,
			ReferralCode: generateReferralCode(),
			ReferredBy:   referredBy,
			PayoutMethod: models.PayoutMethodCard,
			IsActive:     true,
		}

		err := s.db.Create(&user).Error
		if err == nil {
			s.log.Info("referral user created",
				zap.Int64("user_id", userID),
				zap.String("referral_code", user.ReferralCode))
			return &user, nil
		}
		if !isUniqueViolation(err) {
			return nil, fmt.Errorf("error creating referral user: %w", err)
		}

		var existing models.ReferralUser
		if findErr := s.db.Where("user_id = ?", userID).First(&existing).Error; findErr == nil {
			return &existing, nil
		}
		// code collision, try a new one
	}
	return nil, fmt.Errorf("could not generate unique referral code for user %d", userID)
}

// LinkReferral attaches a referrer to the given user by referral code.
// Returns false without mutation when the code is unknown, the user would
// refer themselves, or a referrer is already set. The first referrer wins
// permanently.
func (s *Service) LinkReferral(userID int64, code, username string) (bool, error) {
	var referrer models.ReferralUser
	if err := s.db.Where("referral_code = ?", code).First(&referrer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("error resolving referral code: %w", err)
	}

	if referrer.UserID == userID {
		return false, nil
	}

	linked := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var user models.ReferralUser
		err := forUpdate(tx).Where("user_id = ?", userID).First(&user).Error
		switch {
		case err == nil:
			if user.ReferredBy != nil {
				return nil // already somebody's referral
			}
			if err := tx.Model(&user).Update("referred_by", referrer.UserID).Error; err != nil {
				return fmt.Errorf("error linking referral: %w", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = models.ReferralUser{
				UserID:       userID,
				Username:     username,
				ReferralCode: generateReferralCode(),
				ReferredBy:   &referrer.UserID,
				PayoutMethod: models.PayoutMethodCard,
				IsActive:     true,
			}
			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("error creating referred user: %w", err)
			}
		default:
			return fmt.Errorf("error finding referral user: %w", err)
		}

		if err := tx.Model(&models.ReferralUser{}).
			Where("user_id = ?", referrer.UserID).
			Update("total_referrals", gorm.Expr("total_referrals + 1")).Error; err != nil {
			return fmt.Errorf("error updating referrer counter: %w", err)
		}

		linked = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if linked {
		s.log.Info("referral linked",
			zap.Int64("user_id", userID),
			zap.Int64("referrer_id", referrer.UserID))
	}
	return linked, nil
}

// User returns the referral record for a user
func (s *Service) User(userID int64) (*models.ReferralUser, error) {
	var user models.ReferralUser
	if err := s.db.Where("user_id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding referral user: %w", err)
	}
	return &user, nil
}

// Stats returns the referral record with the referral counter freshly
// reconciled against the actual number of referred users.
func (s *Service) Stats(userID int64) (*models.ReferralUser, error) {
	user, err := s.User(userID)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.ReferralUser{}).
		Where("referred_by = ?", userID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("error counting referrals: %w", err)
	}

	if int(count) != user.TotalReferrals {
		if err := s.db.Model(user).Update("total_referrals", count).Error; err != nil {
			return nil, fmt.Errorf("error syncing referral counter: %w", err)
		}
		user.TotalReferrals = int(count)
	}
	return user, nil
}

// UpdatePayoutInfo stores the manual-transfer profile for a referrer.
// Only the listed columns are ever written; the card number is masked
// before it reaches the database.
func (s *Service) UpdatePayoutInfo(userID int64, method, cardNumber, phoneNumber, fullName string) error {
	user, err := s.User(userID)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"payout_method": method,
		"card_number":   utils.MaskCardNumber(cardNumber),
		"phone_number":  phoneNumber,
		"full_name":     fullName,
	}
	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return fmt.Errorf("error updating payout info: %w", err)
	}
	return nil
}
