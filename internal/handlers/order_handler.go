package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/botwerk/agency-backend/internal/jobs"
	"github.com/botwerk/agency-backend/internal/metrics"
	"github.com/botwerk/agency-backend/internal/models"
	"github.com/botwerk/agency-backend/internal/queue"
	"github.com/botwerk/agency-backend/internal/services/order"
	"github.com/botwerk/agency-backend/internal/services/referral"
)

// OrderHandler handles client order requests
type OrderHandler struct {
	orders  *order.Service
	queue   *queue.Queue
	metrics *metrics.Metrics
	log     *zap.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders *order.Service, q *queue.Queue, m *metrics.Metrics, log *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orders:  orders,
		queue:   q,
		metrics: m,
		log:     log,
	}
}

// Create registers a new development request
func (h *OrderHandler) Create(c *gin.Context) {
	var input struct {
		UserID        int64  `json:"user_id" binding:"required"`
		Username      string `json:"username"`
		OrderType     string `json:"order_type"`
		ProjectName   string `json:"project_name" binding:"required"`
		Functionality string `json:"functionality" binding:"required"`
		Deadlines     string `json:"deadlines"`
		Budget        string `json:"budget"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.orders.Create(input.UserID, input.Username, order.CreateInput{
		OrderType:     input.OrderType,
		ProjectName:   input.ProjectName,
		Functionality: input.Functionality,
		Deadlines:     input.Deadlines,
		Budget:        input.Budget,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create order"})
		return
	}

	h.metrics.RecordOrderCreated(created.OrderType)
	c.JSON(http.StatusCreated, created)
}

// List returns orders, optionally filtered by status
func (h *OrderHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	orders, err := h.orders.Orders(c.Query("status"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get orders"})
		return
	}

	c.JSON(http.StatusOK, orders)
}

// ListForUser returns all orders placed by a Telegram user
func (h *OrderHandler) ListForUser(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	orders, err := h.orders.OrdersForUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get orders"})
		return
	}

	c.JSON(http.StatusOK, orders)
}

// ListAccepted returns accepted orders awaiting payment confirmation
func (h *OrderHandler) ListAccepted(c *gin.Context) {
	orders, err := h.orders.AcceptedOrders()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get accepted orders"})
		return
	}

	c.JSON(http.StatusOK, orders)
}

// Get returns a single order by ID
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	found, err := h.orders.Order(orderID)
	if err != nil {
		if errors.Is(err, referral.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get order"})
		return
	}

	c.JSON(http.StatusOK, found)
}

// SetPrice sets the final price and accepts the order
func (h *OrderHandler) SetPrice(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	var input struct {
		Price float64 `json:"price" binding:"required"`
		Notes string  `json:"notes"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.orders.SetFinalPrice(orderID, input.Price, input.Notes); err != nil {
		h.respondOrderError(c, err, "failed to set price")
		return
	}

	h.notifyOrder(c, orderID, queue.JobTypeOrderAccepted)
	c.JSON(http.StatusOK, gin.H{"status": models.OrderStatusAccepted})
}

// ConfirmPayment marks an order paid and accrues the referral commission
func (h *OrderHandler) ConfirmPayment(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	result, err := h.orders.ConfirmPayment(orderID)
	if err != nil {
		h.respondOrderError(c, err, "failed to confirm payment")
		return
	}

	h.metrics.RecordOrderPaid(result.Order.OrderType, *result.Order.FinalPrice)
	h.enqueueOrderNotification(queue.JobTypePaymentConfirmed, result.Order)

	if result.Earning != nil {
		h.metrics.RecordEarningAccrued(result.Earning.EarnedAmount)
		h.enqueueEarningNotification(result.Earning)
	}

	c.JSON(http.StatusOK, result)
}

// Complete marks an accepted order delivered
func (h *OrderHandler) Complete(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	if err := h.orders.Complete(orderID); err != nil {
		h.respondOrderError(c, err, "failed to complete order")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": models.OrderStatusCompleted})
}

// Reject declines a new order
func (h *OrderHandler) Reject(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	if err := h.orders.Reject(orderID); err != nil {
		h.respondOrderError(c, err, "failed to reject order")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": models.OrderStatusRejected})
}

// Delete removes an order that has not been paid
func (h *OrderHandler) Delete(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	if err := h.orders.Delete(orderID); err != nil {
		h.respondOrderError(c, err, "failed to delete order")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *OrderHandler) respondOrderError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, referral.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
	case errors.Is(err, referral.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "order is not in a valid state for this action"})
	case errors.Is(err, referral.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func (h *OrderHandler) notifyOrder(c *gin.Context, orderID uuid.UUID, jobType queue.JobType) {
	found, err := h.orders.Order(orderID)
	if err != nil {
		h.log.Error("failed to load order for notification", zap.String("order_id", orderID.String()), zap.Error(err))
		return
	}
	h.enqueueOrderNotification(jobType, found)
}

func (h *OrderHandler) enqueueOrderNotification(jobType queue.JobType, o *models.ClientOrder) {
	payload := jobs.OrderNotificationPayload{
		OrderID:     o.ID.String(),
		UserID:      o.UserID,
		OrderType:   o.OrderType,
		Description: o.ProjectName,
		FinalPrice:  o.FinalPrice,
	}
	if _, err := h.queue.Enqueue(context.Background(), jobType, payload); err != nil {
		h.log.Error("failed to enqueue order notification", zap.String("order_id", o.ID.String()), zap.Error(err))
	}
}

func (h *OrderHandler) enqueueEarningNotification(earning *models.ReferralEarning) {
	payload := jobs.EarningNotificationPayload{
		ReferrerID:   earning.ReferrerID,
		EarnedAmount: earning.EarnedAmount,
		OrderAmount:  earning.OrderAmount,
		ReferredUser: earning.ReferredUserID,
	}
	if _, err := h.queue.Enqueue(context.Background(), queue.JobTypeEarningAccrued, payload); err != nil {
		h.log.Error("failed to enqueue earning notification", zap.String("earning_id", earning.ID.String()), zap.Error(err))
	}
}

func parseOrderID(c *gin.Context) (uuid.UUID, bool) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return uuid.Nil, false
	}
	return orderID, true
}
