package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/botwerk/agency-backend/internal/handlers"
	"github.com/botwerk/agency-backend/internal/middleware"
)

// Handlers bundles everything the router needs
type Handlers struct {
	Auth      *handlers.AuthHandler
	Orders    *handlers.OrderHandler
	Referrals *handlers.ReferralHandler
	Payouts   *handlers.PayoutHandler
	Intake    *handlers.IntakeHandler
	Portfolio *handlers.PortfolioHandler
}

// Register wires all API routes onto the router
func Register(router *gin.Engine, h Handlers, rateLimiter *middleware.RateLimiter) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.Use(rateLimiter.IPRateLimiterMiddleware())

	api.POST("/auth/login", h.Auth.Login)

	// Bot-facing routes: called by the Telegram frontend on behalf of
	// users with the bot's service-account token
	bot := api.Group("/")
	bot.Use(middleware.AuthMiddleware())
	{
		bot.POST("/referrals/register", h.Referrals.Register)
		bot.POST("/referrals/link", h.Referrals.Link)
		bot.GET("/referrals/:user_id/stats", h.Referrals.Stats)
		bot.PUT("/referrals/:user_id/payout-info", h.Referrals.UpdatePayoutInfo)
		bot.POST("/referrals/:user_id/payouts", h.Referrals.RequestPayout)
		bot.GET("/referrals/:user_id/earnings", h.Referrals.Earnings)
		bot.GET("/referrals/:user_id/payouts", h.Referrals.Payouts)

		bot.POST("/orders", h.Orders.Create)
		bot.GET("/orders/user/:user_id", h.Orders.ListForUser)

		bot.POST("/applications", h.Intake.CreateApplication)
		bot.POST("/consultations", h.Intake.CreateConsultation)

		bot.GET("/portfolio", h.Portfolio.List)
		bot.GET("/portfolio/:id", h.Portfolio.Get)
	}

	// Admin routes: require a valid admin JWT
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.GET("/orders", h.Orders.List)
		admin.GET("/orders/accepted", h.Orders.ListAccepted)
		admin.GET("/orders/:id", h.Orders.Get)
		admin.PUT("/orders/:id/price", h.Orders.SetPrice)
		admin.POST("/orders/:id/confirm-payment", h.Orders.ConfirmPayment)
		admin.POST("/orders/:id/complete", h.Orders.Complete)
		admin.POST("/orders/:id/reject", h.Orders.Reject)
		admin.DELETE("/orders/:id", h.Orders.Delete)

		admin.GET("/payouts/pending", h.Payouts.Pending)
		admin.GET("/payouts/:id", h.Payouts.Get)
		admin.POST("/payouts/:id/approve", h.Payouts.Approve)
		admin.POST("/payouts/:id/reject", h.Payouts.Reject)
		admin.POST("/payouts/:id/complete", h.Payouts.Complete)
		admin.GET("/earnings/pending", h.Payouts.PendingEarnings)

		admin.GET("/applications", h.Intake.ListApplications)
		admin.POST("/applications/:id/review", h.Intake.ReviewApplication)
		admin.DELETE("/applications/:id", h.Intake.DeleteApplication)

		admin.GET("/consultations", h.Intake.ListConsultations)
		admin.POST("/consultations/:id/answer", h.Intake.AnswerConsultation)
		admin.DELETE("/consultations/:id", h.Intake.DeleteConsultation)

		admin.POST("/portfolio", h.Portfolio.Create)
		admin.PUT("/portfolio/:id", h.Portfolio.Update)
		admin.DELETE("/portfolio/:id", h.Portfolio.Delete)
	}
}
