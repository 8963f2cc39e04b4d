package referral

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/botwerk/agency-backend/internal/models"
)

// linkPair registers a referrer and a referred user and links them
func linkPair(t *testing.T, svc *Service, referrerID, referredID int64) {
	t.Helper()

	referrer, err := svc.Register(referrerID, "referrer")
	require.NoError(t, err)

	linked, err := svc.LinkReferral(referredID, referrer.ReferralCode, "referred")
	require.NoError(t, err)
	require.True(t, linked)
}

// accrue runs AccrueInTx inside its own transaction
func accrue(t *testing.T, svc *Service, db *gorm.DB, referredID int64, orderID uuid.UUID, amount float64) *models.ReferralEarning {
	t.Helper()

	var earning *models.ReferralEarning
	err := db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		earning, txErr = svc.AccrueInTx(tx, referredID, orderID, amount)
		return txErr
	})
	require.NoError(t, err)
	return earning
}

// assertLedgerInvariant checks that no money is created or destroyed:
// every earned ruble is either on the balance, already paid out, or held
// by an in-flight payout request.
func assertLedgerInvariant(t *testing.T, svc *Service, db *gorm.DB, userID int64) {
	t.Helper()

	user, err := svc.User(userID)
	require.NoError(t, err)

	var inFlight float64
	row := db.Model(&models.ReferralPayout{}).
		Where("referrer_id = ? AND status IN ?", userID,
			[]string{models.PayoutStatusRequested, models.PayoutStatusProcessing}).
		Select("COALESCE(SUM(amount), 0)").
		Row()
	require.NoError(t, row.Scan(&inFlight))

	assert.InDelta(t, user.TotalEarned, user.Balance+user.TotalPaid+inFlight, 0.005,
		"balance %.2f + paid %.2f + in-flight %.2f should equal earned %.2f",
		user.Balance, user.TotalPaid, inFlight, user.TotalEarned)
}

func TestAccrueCreditsQuarterOfOrderAmount(t *testing.T) {
	svc, db := newTestService(t)
	linkPair(t, svc, 111, 222)

	earning := accrue(t, svc, db, 222, uuid.New(), 40000)
	require.NotNil(t, earning)

	assert.Equal(t, int64(111), earning.ReferrerID)
	assert.Equal(t, int64(222), earning.ReferredUserID)
	assert.InDelta(t, 10000.0, earning.EarnedAmount, 0.001)
	assert.Equal(t, models.EarningStatusConfirmed, earning.Status)
	require.NotNil(t, earning.ConfirmedAt)

	referrer, err := svc.User(111)
	require.NoError(t, err)
	assert.InDelta(t, 10000.0, referrer.Balance, 0.001)
	assert.InDelta(t, 10000.0, referrer.TotalEarned, 0.001)

	assertLedgerInvariant(t, svc, db, 111)
}

func TestAccrueWithoutReferrerIsNoOp(t *testing.T) {
	svc, db := newTestService(t)

	_, err := svc.Register(222, "loner")
	require.NoError(t, err)

	earning := accrue(t, svc, db, 222, uuid.New(), 40000)
	assert.Nil(t, earning)

	var count int64
	require.NoError(t, db.Model(&models.ReferralEarning{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAccrueUnknownUserIsNoOp(t *testing.T) {
	svc, db := newTestService(t)

	earning := accrue(t, svc, db, 999, uuid.New(), 40000)
	assert.Nil(t, earning)
}

func TestAccrueIsIdempotentPerOrder(t *testing.T) {
	svc, db := newTestService(t)
	linkPair(t, svc, 111, 222)

	orderID := uuid.New()
	first := accrue(t, svc, db, 222, orderID, 40000)
	require.NotNil(t, first)

	second := accrue(t, svc, db, 222, orderID, 40000)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&models.ReferralEarning{}).Where("order_id = ?", orderID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// The duplicate must not have credited the referrer twice
	referrer, err := svc.User(111)
	require.NoError(t, err)
	assert.InDelta(t, 10000.0, referrer.Balance, 0.001)
	assert.InDelta(t, 10000.0, referrer.TotalEarned, 0.001)
}

func TestDuplicateAccrualLeavesTransactionUsable(t *testing.T) {
	svc, db := newTestService(t)
	linkPair(t, svc, 111, 222)

	orderID := uuid.New()
	first := accrue(t, svc, db, 222, orderID, 40000)
	require.NotNil(t, first)

	// A payment-confirmation transaction that hits an already-accrued
	// order gets the existing earning back and must stay usable for its
	// remaining statements through commit.
	err := db.Transaction(func(tx *gorm.DB) error {
		earning, txErr := svc.AccrueInTx(tx, 222, orderID, 40000)
		require.NoError(t, txErr)
		require.NotNil(t, earning)
		assert.Equal(t, first.ID, earning.ID)

		return tx.Model(&models.ReferralUser{}).
			Where("user_id = ?", int64(222)).
			Update("username", "renamed").Error
	})
	require.NoError(t, err)

	var user models.ReferralUser
	require.NoError(t, db.Where("user_id = ?", int64(222)).First(&user).Error)
	assert.Equal(t, "renamed", user.Username)

	var count int64
	require.NoError(t, db.Model(&models.ReferralEarning{}).Where("order_id = ?", orderID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	referrer, err := svc.User(111)
	require.NoError(t, err)
	assert.InDelta(t, 10000.0, referrer.Balance, 0.001)
	assertLedgerInvariant(t, svc, db, 111)
}

func TestRequestPayoutDebitsBalance(t *testing.T) {
	svc, db := newTestService(t)
	linkPair(t, svc, 111, 222)
	accrue(t, svc, db, 222, uuid.New(), 40000)

	payout, err := svc.RequestPayout(111, 5000, models.PayoutMethodCard, "card ending 3456")
	require.NoError(t, err)
	assert.Equal(t, models.PayoutStatusRequested, payout.Status)
	assert.InDelta(t, 5000.0, payout.Amount, 0.001)

	referrer, err := svc.User(111)
	require.NoError(t, err)
	assert.InDelta(t, 5000.0, referrer.Balance, 0.001)

	assertLedgerInvariant(t, svc, db, 111)
}

func TestRequestPayoutRejectsOverBalance(t *testing.T) {
	svc, db := newTestService(t)
	linkPair(t, svc, 111, 222)
	accrue(t, svc, db, 222, uuid.New(), 40000) // balance 10000

	_, err := svc.RequestPayout(111, 20000, models.PayoutMethodCard, "")
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// No partial mutation
	referrer, err := svc.User(111)
	require.NoError(t, err)
	assert.InDelta(t, 10000.0, referrer.Balance, 0.001)

	var count int64
	require.NoError(t, db.Model(&models.ReferralPayout{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRequestPayoutRejectsNonPositiveAmount(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.RequestPayout(111, 0, models.PayoutMethodCard, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.RequestPayout(111, -100, models.PayoutMethodCard, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestRequestPayoutDefaultsToProfileMethod(t *testing.T) {
	svc, db := newTestService(t)
	linkPair(t, svc, 111, 222)
	accrue(t, svc, db, 222, uuid.New(), 40000)

	require.NoError(t, svc.UpdatePayoutInfo(111, models.PayoutMethodSBP, "", "+79990001122", "Alice"))

	payout, err := svc.RequestPayout(111, 1000, "", "")
	require.NoError(t, err)
	assert.Equal(t, models.PayoutMethodSBP, payout.Method)
}

func TestApprovePayout(t *testing.T) {
	svc, db := newTestService(t)
	linkPair(t, svc, 111, 222)
	accrue(t, svc, db, 222, uuid.New(), 40000)

	payout, err := svc.RequestPayout(111, 5000, models.PayoutMethodCard, "")
	require.NoError(t, err)

	require.NoError(t, svc.ApprovePayout(payout.ID))

	loaded, err := svc.Payout(payout.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PayoutStatusProcessing, loaded.Status)
	assert.NotNil(t, loaded.ProcessedAt)

	// A second approval is not allowed
	assert.ErrorIs(t, svc.ApprovePayout(payout.ID), ErrInvalidTransition)

	assertLedgerInvariant(t, svc, db, 111)
}

func TestRejectPayoutRefundsBalance(t *testing.T) {
	svc, db := newTestService(t)
	linkPair(t, svc, 111, 222)
	accrue(t, svc, db, 222, uuid.New(), 40000)

	payout, err := svc.RequestPayout(111, 5000, models.PayoutMethodCard, "")
	require.NoError(t, err)

	require.NoError(t, svc.RejectPayout(payout.ID, "wrong card number"))

	loaded, err := svc.Payout(payout.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PayoutStatusFailed, loaded.Status)
	assert.Equal(t, "wrong card number", loaded.AdminNotes)

	referrer, err := svc.User(111)
	require.NoError(t, err)
	assert.InDelta(t, 10000.0, referrer.Balance, 0.001)

	assertLedgerInvariant(t, svc, db, 111)
}

func TestCompletePayoutAddsTotalPaid(t *testing.T) {
	svc, db := newTestService(t)
	linkPair(t, svc, 111, 222)
	accrue(t, svc, db, 222, uuid.New(), 40000) // earning 10000

	payout, err := svc.RequestPayout(111, 5000, models.PayoutMethodCard, "")
	require.NoError(t, err)
	require.NoError(t, svc.ApprovePayout(payout.ID))
	require.NoError(t, svc.CompletePayout(payout.ID, "transfer #42"))

	loaded, err := svc.Payout(payout.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PayoutStatusCompleted, loaded.Status)
	assert.Equal(t, "transfer #42", loaded.TransactionDetails)
	assert.NotNil(t, loaded.CompletedAt)

	referrer, err := svc.User(111)
	require.NoError(t, err)
	assert.InDelta(t, 5000.0, referrer.Balance, 0.001)
	assert.InDelta(t, 5000.0, referrer.TotalPaid, 0.001)
	assert.InDelta(t, 10000.0, referrer.TotalEarned, 0.001)

	assertLedgerInvariant(t, svc, db, 111)
}

func TestCompletePayoutSettlesOldestEarningsFirst(t *testing.T) {
	svc, db := newTestService(t)
	linkPair(t, svc, 111, 222)

	first := accrue(t, svc, db, 222, uuid.New(), 2000)  // 500
	second := accrue(t, svc, db, 222, uuid.New(), 4000) // 1000
	third := accrue(t, svc, db, 222, uuid.New(), 8000)  // 2000

	payout, err := svc.RequestPayout(111, 1500, models.PayoutMethodCard, "")
	require.NoError(t, err)
	require.NoError(t, svc.CompletePayout(payout.ID, ""))

	var reloaded models.ReferralEarning
	require.NoError(t, db.First(&reloaded, "id = ?", first.ID).Error)
	assert.Equal(t, models.EarningStatusPaid, reloaded.Status)
	assert.NotNil(t, reloaded.PaidAt)

	reloaded = models.ReferralEarning{}
	require.NoError(t, db.First(&reloaded, "id = ?", second.ID).Error)
	assert.Equal(t, models.EarningStatusPaid, reloaded.Status)

	// 500 + 1000 exhaust the payout; the third earning stays confirmed
	reloaded = models.ReferralEarning{}
	require.NoError(t, db.First(&reloaded, "id = ?", third.ID).Error)
	assert.Equal(t, models.EarningStatusConfirmed, reloaded.Status)
	assert.Nil(t, reloaded.PaidAt)

	var settlements []models.PayoutSettlement
	require.NoError(t, db.Where("payout_id = ?", payout.ID).Find(&settlements).Error)
	require.Len(t, settlements, 2)

	assertLedgerInvariant(t, svc, db, 111)
}

func TestCompletePayoutSkipsOversizedEarning(t *testing.T) {
	svc, db := newTestService(t)
	linkPair(t, svc, 111, 222)

	accrue(t, svc, db, 222, uuid.New(), 40000) // single 10000 earning

	payout, err := svc.RequestPayout(111, 5000, models.PayoutMethodCard, "")
	require.NoError(t, err)
	require.NoError(t, svc.CompletePayout(payout.ID, ""))

	// The 10000 earning cannot be fully covered by a 5000 payout
	var earnings []models.ReferralEarning
	require.NoError(t, db.Where("referrer_id = ?", 111).Find(&earnings).Error)
	require.Len(t, earnings, 1)
	assert.Equal(t, models.EarningStatusConfirmed, earnings[0].Status)

	var count int64
	require.NoError(t, db.Model(&models.PayoutSettlement{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCompletedPayoutCannotBeRejected(t *testing.T) {
	svc, db := newTestService(t)
	linkPair(t, svc, 111, 222)
	accrue(t, svc, db, 222, uuid.New(), 40000)

	payout, err := svc.RequestPayout(111, 5000, models.PayoutMethodCard, "")
	require.NoError(t, err)
	require.NoError(t, svc.CompletePayout(payout.ID, ""))

	assert.ErrorIs(t, svc.RejectPayout(payout.ID, "too late"), ErrInvalidTransition)
	assert.ErrorIs(t, svc.CompletePayout(payout.ID, "again"), ErrInvalidTransition)
}

func TestPayoutOperationsOnUnknownID(t *testing.T) {
	svc, _ := newTestService(t)

	missing := uuid.New()
	assert.ErrorIs(t, svc.ApprovePayout(missing), ErrNotFound)
	assert.ErrorIs(t, svc.RejectPayout(missing, ""), ErrNotFound)
	assert.ErrorIs(t, svc.CompletePayout(missing, ""), ErrNotFound)

	_, err := svc.Payout(missing)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPendingPayoutsListsRequestedOldestFirst(t *testing.T) {
	svc, db := newTestService(t)
	linkPair(t, svc, 111, 222)
	accrue(t, svc, db, 222, uuid.New(), 40000)

	first, err := svc.RequestPayout(111, 1000, models.PayoutMethodCard, "")
	require.NoError(t, err)
	second, err := svc.RequestPayout(111, 2000, models.PayoutMethodCard, "")
	require.NoError(t, err)

	require.NoError(t, svc.ApprovePayout(second.ID))

	pending, err := svc.PendingPayouts()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, first.ID, pending[0].ID)
}

func TestEarningsFilterByStatus(t *testing.T) {
	svc, db := newTestService(t)
	linkPair(t, svc, 111, 222)

	accrue(t, svc, db, 222, uuid.New(), 2000) // 500
	accrue(t, svc, db, 222, uuid.New(), 4000) // 1000

	payout, err := svc.RequestPayout(111, 500, models.PayoutMethodCard, "")
	require.NoError(t, err)
	require.NoError(t, svc.CompletePayout(payout.ID, ""))

	paid, err := svc.Earnings(111, models.EarningStatusPaid)
	require.NoError(t, err)
	assert.Len(t, paid, 1)

	confirmed, err := svc.Earnings(111, models.EarningStatusConfirmed)
	require.NoError(t, err)
	assert.Len(t, confirmed, 1)

	all, err := svc.Earnings(111, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMultiLevelReferralsStayIndependent(t *testing.T) {
	svc, db := newTestService(t)

	// alice refers bob, bob refers carol
	alice, err := svc.Register(111, "alice")
	require.NoError(t, err)
	linked, err := svc.LinkReferral(222, alice.ReferralCode, "bob")
	require.NoError(t, err)
	require.True(t, linked)

	bob, err := svc.User(222)
	require.NoError(t, err)
	linked, err = svc.LinkReferral(333, bob.ReferralCode, "carol")
	require.NoError(t, err)
	require.True(t, linked)

	// carol's order credits bob only, never alice
	accrue(t, svc, db, 333, uuid.New(), 10000)

	bobReloaded, err := svc.User(222)
	require.NoError(t, err)
	assert.InDelta(t, 2500.0, bobReloaded.Balance, 0.001)

	aliceReloaded, err := svc.User(111)
	require.NoError(t, err)
	assert.Zero(t, aliceReloaded.Balance)
}
