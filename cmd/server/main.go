package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/botwerk/agency-backend/internal/config"
	"github.com/botwerk/agency-backend/internal/database"
	"github.com/botwerk/agency-backend/internal/database/migrations"
	"github.com/botwerk/agency-backend/internal/handlers"
	"github.com/botwerk/agency-backend/internal/jobs"
	"github.com/botwerk/agency-backend/internal/metrics"
	"github.com/botwerk/agency-backend/internal/middleware"
	"github.com/botwerk/agency-backend/internal/queue"
	"github.com/botwerk/agency-backend/internal/routes"
	"github.com/botwerk/agency-backend/internal/services/intake"
	"github.com/botwerk/agency-backend/internal/services/notify"
	"github.com/botwerk/agency-backend/internal/services/order"
	"github.com/botwerk/agency-backend/internal/services/portfolio"
	"github.com/botwerk/agency-backend/internal/services/referral"
	"github.com/botwerk/agency-backend/internal/services/session"
)

func main() {
	cfg := config.LoadConfig()

	logger, err := newLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := migrations.RunMigrations(db); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("failed to sync schema", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	m := metrics.New()

	referralSvc := referral.NewService(db, logger, cfg.Referral)
	orderSvc := order.NewService(db, logger, referralSvc)
	intakeSvc := intake.NewService(db, logger)
	portfolioSvc := portfolio.NewService(db, logger)
	sessionSvc := session.NewService(db, logger)

	notifier, err := notify.NewNotifier(cfg.Telegram, logger)
	if err != nil {
		logger.Fatal("failed to create notifier", zap.Error(err))
	}

	jobQueue := queue.NewQueue(redisClient, logger)
	worker := queue.NewWorker(jobQueue, logger, m, 2)
	jobs.NewNotificationJobs(notifier, logger).Register(worker)
	worker.Start()
	defer worker.Stop()

	scheduler := jobs.NewScheduler(sessionSvc, logger)
	if err := scheduler.Start(); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer scheduler.Stop()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	rateLimiter := middleware.NewRateLimiter(20, 40)
	defer rateLimiter.Stop()

	routes.Register(router, routes.Handlers{
		Auth:      handlers.NewAuthHandler(cfg.JWT),
		Orders:    handlers.NewOrderHandler(orderSvc, jobQueue, m, logger),
		Referrals: handlers.NewReferralHandler(referralSvc, jobQueue, m, cfg.Referral, logger),
		Payouts:   handlers.NewPayoutHandler(referralSvc, jobQueue, m, logger),
		Intake:    handlers.NewIntakeHandler(intakeSvc),
		Portfolio: handlers.NewPortfolioHandler(portfolioSvc),
	}, rateLimiter)

	logger.Info("server starting", zap.String("port", cfg.Server.Port))
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func newLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
