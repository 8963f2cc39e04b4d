package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the ledger counters exposed on /metrics
type Metrics struct {
	OrdersCreatedTotal   prometheus.CounterVec
	OrdersPaidTotal      prometheus.CounterVec
	OrdersPaidAmount     prometheus.CounterVec
	EarningsAccruedTotal prometheus.Counter
	EarningsAmountTotal  prometheus.Counter
	PayoutsRequestedTotal prometheus.Counter
	PayoutsCompletedTotal prometheus.Counter
	PayoutsAmountTotal    prometheus.Counter
	QueueJobsFailedTotal  prometheus.CounterVec
}

// New registers and returns the metrics set
func New() *Metrics {
	return &Metrics{
		OrdersCreatedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orders_created_total",
				Help: "Total number of client orders created",
			},
			[]string{"order_type"},
		),

		OrdersPaidTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orders_paid_total",
				Help: "Total number of orders with confirmed payment",
			},
			[]string{"order_type"},
		),

		OrdersPaidAmount: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orders_paid_amount_total",
				Help: "Total amount of confirmed payments",
			},
			[]string{"order_type"},
		),

		EarningsAccruedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "referral_earnings_accrued_total",
				Help: "Total number of referral commissions accrued",
			},
		),

		EarningsAmountTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "referral_earnings_amount_total",
				Help: "Total amount of referral commissions accrued",
			},
		),

		PayoutsRequestedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "referral_payouts_requested_total",
				Help: "Total number of payout requests",
			},
		),

		PayoutsCompletedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "referral_payouts_completed_total",
				Help: "Total number of completed payouts",
			},
		),

		PayoutsAmountTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "referral_payouts_amount_total",
				Help: "Total amount paid out to referrers",
			},
		),

		QueueJobsFailedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queue_jobs_failed_total",
				Help: "Total number of notification jobs that exhausted retries",
			},
			[]string{"job_type"},
		),
	}
}

// RecordOrderCreated records a new client order
func (m *Metrics) RecordOrderCreated(orderType string) {
	m.OrdersCreatedTotal.WithLabelValues(orderType).Inc()
}

// RecordOrderPaid records a confirmed payment
func (m *Metrics) RecordOrderPaid(orderType string, amount float64) {
	m.OrdersPaidTotal.WithLabelValues(orderType).Inc()
	m.OrdersPaidAmount.WithLabelValues(orderType).Add(amount)
}

// RecordEarningAccrued records an accrued referral commission
func (m *Metrics) RecordEarningAccrued(amount float64) {
	m.EarningsAccruedTotal.Inc()
	m.EarningsAmountTotal.Add(amount)
}

// RecordPayoutRequested records a new payout request
func (m *Metrics) RecordPayoutRequested() {
	m.PayoutsRequestedTotal.Inc()
}

// RecordPayoutCompleted records a completed payout
func (m *Metrics) RecordPayoutCompleted(amount float64) {
	m.PayoutsCompletedTotal.Inc()
	m.PayoutsAmountTotal.Add(amount)
}

// RecordJobFailed records a dead-lettered queue job
func (m *Metrics) RecordJobFailed(jobType string) {
	m.QueueJobsFailedTotal.WithLabelValues(jobType).Inc()
}
