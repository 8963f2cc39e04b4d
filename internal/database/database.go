package database

import (
	"fmt"
	"time"

	"github.com/botwerk/agency-backend/internal/config"
	"github.com/botwerk/agency-backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB initializes the database connection with configuration
func InitDB(dbConfig config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dbConfig.URL), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	sqlDB.SetMaxIdleConns(dbConfig.MaxIdle)
	sqlDB.SetMaxOpenConns(dbConfig.MaxConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// AutoMigrate applies the schema for all models. Versioned migrations in
// the migrations package run first; this picks up column additions.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Referral ledger
		&models.ReferralUser{},
		&models.ReferralEarning{},
		&models.ReferralPayout{},
		&models.PayoutSettlement{},

		// Orders and intake
		&models.ClientOrder{},
		&models.TeamApplication{},
		&models.ConsultationRequest{},

		// Content and sessions
		&models.PortfolioProject{},
		&models.UserSession{},
	)
}
