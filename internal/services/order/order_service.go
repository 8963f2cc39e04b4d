package order

import (
	"errors"
	"fmt"

	"github.com/botwerk/agency-backend/internal/models"
	"github.com/botwerk/agency-backend/internal/services/referral"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service manages client orders and their payment lifecycle. Payment
// confirmation is the only path that produces a referral earning, and it
// does so inside the same transaction as the status change.
type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	referrals *referral.Service
}

// NewService creates a new order service
func NewService(db *gorm.DB, log *zap.Logger, referrals *referral.Service) *Service {
	return &Service{db: db, log: log, referrals: referrals}
}

// CreateInput carries the client-provided order fields
type CreateInput struct {
	OrderType     string
	ProjectName   string
	Functionality string
	Deadlines     string
	Budget        string
}

// ConfirmPaymentResult reports the outcome of a payment confirmation.
// Earning is non-nil only when the ordering user had a referrer.
type ConfirmPaymentResult struct {
	Order   *models.ClientOrder
	Earning *models.ReferralEarning
}

// Create registers a new development request with status new
func (s *Service) Create(userID int64, username string, input CreateInput) (*models.ClientOrder, error) {
	orderType := input.OrderType
	if orderType == "" {
		orderType = models.OrderTypeBot
	}

	order := models.ClientOrder{
		UserID:        userID,
		Username:      username,
		OrderType:     orderType,
		ProjectName:   input.ProjectName,
		Functionality: input.Functionality,
		Deadlines:     input.Deadlines,
		Budget:        input.Budget,
		Status:        models.OrderStatusNew,
	}
	if err := s.db.Create(&order).Error; err != nil {
		return nil, fmt.Errorf("error creating order: %w", err)
	}

	s.log.Info("client order created",
		zap.String("order_id", order.ID.String()),
		zap.Int64("user_id", userID),
		zap.String("project_name", order.ProjectName))
	return &order, nil
}

// Order returns a single order by ID
func (s *Service) Order(orderID uuid.UUID) (*models.ClientOrder, error) {
	var order models.ClientOrder
	if err := s.db.Where("id = ?", orderID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, referral.ErrNotFound
		}
		return nil, fmt.Errorf("error loading order: %w", err)
	}
	return &order, nil
}

// Orders lists orders newest first, optionally filtered by status
func (s *Service) Orders(status string, limit int) ([]models.ClientOrder, error) {
	if limit <= 0 {
		limit = 50
	}
	query := s.db.Order("created_at DESC").Limit(limit)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var orders []models.ClientOrder
	if err := query.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("error listing orders: %w", err)
	}
	return orders, nil
}

// OrdersForUser lists a user's own orders, newest first
func (s *Service) OrdersForUser(userID int64) ([]models.ClientOrder, error) {
	var orders []models.ClientOrder
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("error listing user orders: %w", err)
	}
	return orders, nil
}

// AcceptedOrders lists accepted orders awaiting payment confirmation
func (s *Service) AcceptedOrders() ([]models.ClientOrder, error) {
	var orders []models.ClientOrder
	if err := s.db.Where("status = ?", models.OrderStatusAccepted).
		Order("created_at ASC").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("error listing accepted orders: %w", err)
	}
	return orders, nil
}

// SetFinalPrice sets the admin price and moves the order to accepted.
// Re-pricing an accepted order is allowed; re-pricing never re-triggers
// an earning because accrual happens only on payment confirmation.
func (s *Service) SetFinalPrice(orderID uuid.UUID, price float64, notes string) error {
	if price <= 0 {
		return referral.ErrInvalidAmount
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var order models.ClientOrder
		if err := tx.Where("id = ?", orderID).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return referral.ErrNotFound
			}
			return fmt.Errorf("error loading order: %w", err)
		}

		if order.Status != models.OrderStatusNew && order.Status != models.OrderStatusAccepted {
			return referral.ErrInvalidTransition
		}

		updates := map[string]interface{}{
			"final_price": price,
			"status":      models.OrderStatusAccepted,
		}
		if notes != "" {
			updates["admin_notes"] = notes
		}
		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return fmt.Errorf("error setting final price: %w", err)
		}

		s.log.Info("order priced",
			zap.String("order_id", orderID.String()),
			zap.Float64("final_price", price))
		return nil
	})
}

// ConfirmPayment marks an accepted order as paid and accrues the referral
// commission in the same transaction. A second confirmation on an already
// paid order fails with ErrInvalidTransition, which is what prevents a
// double accrual at the operation level; the unique order_id index backs
// that up at the storage level.
func (s *Service) ConfirmPayment(orderID uuid.UUID) (*ConfirmPaymentResult, error) {
	var result ConfirmPaymentResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var order models.ClientOrder
		if err := tx.Where("id = ?", orderID).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return referral.ErrNotFound
			}
			return fmt.Errorf("error loading order: %w", err)
		}

		if order.Status != models.OrderStatusAccepted {
			return referral.ErrInvalidTransition
		}
		if order.FinalPrice == nil {
			return referral.ErrInvalidTransition
		}

		if err := tx.Model(&order).Update("status", models.OrderStatusPaid).Error; err != nil {
			return fmt.Errorf("error marking order paid: %w", err)
		}
		order.Status = models.OrderStatusPaid

		earning, err := s.referrals.AccrueInTx(tx, order.UserID, order.ID, *order.FinalPrice)
		if err != nil {
			return err
		}

		result.Order = &order
		result.Earning = earning
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order payment confirmed",
		zap.String("order_id", orderID.String()),
		zap.Bool("earning_created", result.Earning != nil))
	return &result, nil
}

// Complete closes an accepted order without payment tracking
func (s *Service) Complete(orderID uuid.UUID) error {
	return s.transition(orderID, models.OrderStatusCompleted,
		models.OrderStatusAccepted)
}

// Reject declines a new order; rejected is terminal
func (s *Service) Reject(orderID uuid.UUID) error {
	return s.transition(orderID, models.OrderStatusRejected,
		models.OrderStatusNew)
}

// transition applies a status change when the current status is allowed
func (s *Service) transition(orderID uuid.UUID, to string, allowedFrom ...string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var order models.ClientOrder
		if err := tx.Where("id = ?", orderID).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return referral.ErrNotFound
			}
			return fmt.Errorf("error loading order: %w", err)
		}

		allowed := false
		for _, from := range allowedFrom {
			if order.Status == from {
				allowed = true
				break
			}
		}
		if !allowed {
			return referral.ErrInvalidTransition
		}

		if err := tx.Model(&order).Update("status", to).Error; err != nil {
			return fmt.Errorf("error updating order status: %w", err)
		}
		return nil
	})
}

// Delete removes an order that never reached payment
func (s *Service) Delete(orderID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var order models.ClientOrder
		if err := tx.Where("id = ?", orderID).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return referral.ErrNotFound
			}
			return fmt.Errorf("error loading order: %w", err)
		}

		if order.Status == models.OrderStatusPaid {
			return referral.ErrInvalidTransition
		}

		if err := tx.Delete(&order).Error; err != nil {
			return fmt.Errorf("error deleting order: %w", err)
		}
		return nil
	})
}
