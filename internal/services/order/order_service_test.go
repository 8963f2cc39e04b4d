package order

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/botwerk/agency-backend/internal/config"
	"github.com/botwerk/agency-backend/internal/models"
	"github.com/botwerk/agency-backend/internal/services/referral"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.ClientOrder{},
		&models.ReferralUser{},
		&models.ReferralEarning{},
		&models.ReferralPayout{},
		&models.PayoutSettlement{},
	))
	return db
}

func newTestService(t *testing.T) (*Service, *referral.Service, *gorm.DB) {
	db := setupTestDB(t)
	log := zap.NewNop()
	referrals := referral.NewService(db, log, config.ReferralConfig{
		CommissionRate: 0.25,
		MinPayout:      500,
	})
	return NewService(db, log, referrals), referrals, db
}

func createTestOrder(t *testing.T, svc *Service, userID int64) *models.ClientOrder {
	t.Helper()

	order, err := svc.Create(userID, "client", CreateInput{
		OrderType:     models.OrderTypeBot,
		ProjectName:   "Shop bot",
		Functionality: "catalog, cart, payments",
		Deadlines:     "2 weeks",
		Budget:        "40000-60000",
	})
	require.NoError(t, err)
	return order
}

func TestCreateOrderDefaults(t *testing.T) {
	svc, _, _ := newTestService(t)

	order, err := svc.Create(222, "client", CreateInput{
		ProjectName:   "Mini app",
		Functionality: "booking form",
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusNew, order.Status)
	assert.Equal(t, models.OrderTypeBot, order.OrderType)
	assert.Nil(t, order.FinalPrice)
}

func TestSetFinalPriceAcceptsOrder(t *testing.T) {
	svc, _, _ := newTestService(t)
	order := createTestOrder(t, svc, 222)

	require.NoError(t, svc.SetFinalPrice(order.ID, 40000, "scope agreed"))

	loaded, err := svc.Order(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusAccepted, loaded.Status)
	require.NotNil(t, loaded.FinalPrice)
	assert.InDelta(t, 40000.0, *loaded.FinalPrice, 0.001)
	assert.Equal(t, "scope agreed", loaded.AdminNotes)
}

func TestSetFinalPriceAllowsRepricing(t *testing.T) {
	svc, _, _ := newTestService(t)
	order := createTestOrder(t, svc, 222)

	require.NoError(t, svc.SetFinalPrice(order.ID, 40000, ""))
	require.NoError(t, svc.SetFinalPrice(order.ID, 45000, ""))

	loaded, err := svc.Order(order.ID)
	require.NoError(t, err)
	assert.InDelta(t, 45000.0, *loaded.FinalPrice, 0.001)
	assert.Equal(t, models.OrderStatusAccepted, loaded.Status)
}

func TestSetFinalPriceRejectsNonPositive(t *testing.T) {
	svc, _, _ := newTestService(t)
	order := createTestOrder(t, svc, 222)

	assert.ErrorIs(t, svc.SetFinalPrice(order.ID, 0, ""), referral.ErrInvalidAmount)
	assert.ErrorIs(t, svc.SetFinalPrice(order.ID, -100, ""), referral.ErrInvalidAmount)
}

func TestConfirmPaymentAccruesCommission(t *testing.T) {
	svc, referrals, _ := newTestService(t)

	// 111 referred 222
	referrer, err := referrals.Register(111, "referrer")
	require.NoError(t, err)
	linked, err := referrals.LinkReferral(222, referrer.ReferralCode, "client")
	require.NoError(t, err)
	require.True(t, linked)

	order := createTestOrder(t, svc, 222)
	require.NoError(t, svc.SetFinalPrice(order.ID, 40000, ""))

	result, err := svc.ConfirmPayment(order.ID)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPaid, result.Order.Status)
	require.NotNil(t, result.Earning)
	assert.InDelta(t, 10000.0, result.Earning.EarnedAmount, 0.001)

	reloaded, err := referrals.User(111)
	require.NoError(t, err)
	assert.InDelta(t, 10000.0, reloaded.Balance, 0.001)
}

func TestConfirmPaymentWithoutReferrer(t *testing.T) {
	svc, _, db := newTestService(t)

	order := createTestOrder(t, svc, 222)
	require.NoError(t, svc.SetFinalPrice(order.ID, 40000, ""))

	result, err := svc.ConfirmPayment(order.ID)
	require.NoError(t, err)
	assert.Nil(t, result.Earning)

	var count int64
	require.NoError(t, db.Model(&models.ReferralEarning{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestConfirmPaymentRequiresAcceptedWithPrice(t *testing.T) {
	svc, _, _ := newTestService(t)
	order := createTestOrder(t, svc, 222)

	// Still new, no price set
	_, err := svc.ConfirmPayment(order.ID)
	assert.ErrorIs(t, err, referral.ErrInvalidTransition)
}

func TestConfirmPaymentIsNotRepeatable(t *testing.T) {
	svc, referrals, db := newTestService(t)

	referrer, err := referrals.Register(111, "referrer")
	require.NoError(t, err)
	linked, err := referrals.LinkReferral(222, referrer.ReferralCode, "client")
	require.NoError(t, err)
	require.True(t, linked)

	order := createTestOrder(t, svc, 222)
	require.NoError(t, svc.SetFinalPrice(order.ID, 40000, ""))

	_, err = svc.ConfirmPayment(order.ID)
	require.NoError(t, err)

	_, err = svc.ConfirmPayment(order.ID)
	assert.ErrorIs(t, err, referral.ErrInvalidTransition)

	// Exactly one earning for the order
	var count int64
	require.NoError(t, db.Model(&models.ReferralEarning{}).Where("order_id = ?", order.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	reloaded, err := referrals.User(111)
	require.NoError(t, err)
	assert.InDelta(t, 10000.0, reloaded.Balance, 0.001)
}

func TestRejectOnlyNewOrders(t *testing.T) {
	svc, _, _ := newTestService(t)
	order := createTestOrder(t, svc, 222)

	require.NoError(t, svc.SetFinalPrice(order.ID, 40000, ""))
	assert.ErrorIs(t, svc.Reject(order.ID), referral.ErrInvalidTransition)
}

func TestCompleteAcceptedOrder(t *testing.T) {
	svc, _, _ := newTestService(t)
	order := createTestOrder(t, svc, 222)

	require.NoError(t, svc.SetFinalPrice(order.ID, 40000, ""))
	require.NoError(t, svc.Complete(order.ID))

	loaded, err := svc.Order(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, loaded.Status)
}

func TestDeletePaidOrderForbidden(t *testing.T) {
	svc, _, _ := newTestService(t)
	order := createTestOrder(t, svc, 222)

	require.NoError(t, svc.SetFinalPrice(order.ID, 40000, ""))
	_, err := svc.ConfirmPayment(order.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(order.ID), referral.ErrInvalidTransition)
}

func TestDeleteUnpaidOrder(t *testing.T) {
	svc, _, _ := newTestService(t)
	order := createTestOrder(t, svc, 222)

	require.NoError(t, svc.Delete(order.ID))

	_, err := svc.Order(order.ID)
	assert.ErrorIs(t, err, referral.ErrNotFound)
}

func TestOrdersForUser(t *testing.T) {
	svc, _, _ := newTestService(t)

	createTestOrder(t, svc, 222)
	createTestOrder(t, svc, 222)
	createTestOrder(t, svc, 333)

	orders, err := svc.OrdersForUser(222)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestOrdersFilterByStatus(t *testing.T) {
	svc, _, _ := newTestService(t)

	first := createTestOrder(t, svc, 222)
	createTestOrder(t, svc, 333)
	require.NoError(t, svc.SetFinalPrice(first.ID, 40000, ""))

	accepted, err := svc.Orders(models.OrderStatusAccepted, 0)
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, first.ID, accepted[0].ID)

	fresh, err := svc.Orders(models.OrderStatusNew, 0)
	require.NoError(t, err)
	assert.Len(t, fresh, 1)
}

func TestOrderNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Order(uuid.New())
	assert.ErrorIs(t, err, referral.ErrNotFound)
}
