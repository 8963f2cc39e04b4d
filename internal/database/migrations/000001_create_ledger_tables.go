package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createLedgerTables creates the referral ledger and client order tables
func createLedgerTables() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_ledger_tables",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS referral_users (
					id UUID PRIMARY KEY,
					user_id BIGINT NOT NULL UNIQUE,
					username VARCHAR(100),
					referral_code VARCHAR(20) NOT NULL UNIQUE,
					referred_by BIGINT REFERENCES referral_users(user_id),
					payout_method VARCHAR(20) DEFAULT 'card',
					card_number VARCHAR(20),
					phone_number VARCHAR(15),
					full_name VARCHAR(200),
					total_referrals INTEGER DEFAULT 0,
					total_earned DECIMAL(20,2) DEFAULT 0,
					total_paid DECIMAL(20,2) DEFAULT 0,
					balance DECIMAL(20,2) DEFAULT 0,
					is_active BOOLEAN DEFAULT TRUE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX idx_referral_users_referred_by ON referral_users(referred_by);
			`).Error; err != nil {
				return err
			}

			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS client_orders (
					id UUID PRIMARY KEY,
					user_id BIGINT NOT NULL,
					username VARCHAR(100),
					order_type VARCHAR(20) NOT NULL DEFAULT 'bot',
					project_name VARCHAR(200) NOT NULL,
					functionality TEXT NOT NULL,
					deadlines VARCHAR(100) NOT NULL,
					budget VARCHAR(100) NOT NULL,
					status VARCHAR(20) DEFAULT 'new',
					final_price DECIMAL(20,2),
					admin_notes TEXT,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX idx_client_orders_user_status ON client_orders(user_id, status);
				CREATE INDEX idx_client_orders_created ON client_orders(created_at);
			`).Error; err != nil {
				return err
			}

			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS referral_earnings (
					id UUID PRIMARY KEY,
					referrer_id BIGINT NOT NULL REFERENCES referral_users(user_id),
					referred_user_id BIGINT NOT NULL,
					order_id UUID NOT NULL UNIQUE REFERENCES client_orders(id),
					order_amount DECIMAL(20,2) NOT NULL,
					commission_rate DECIMAL(5,2) DEFAULT 0.25,
					earned_amount DECIMAL(20,2) NOT NULL,
					status VARCHAR(20) DEFAULT 'pending',
					confirmed_at TIMESTAMP WITH TIME ZONE,
					paid_at TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX idx_referral_earnings_referrer_status ON referral_earnings(referrer_id, status);
				CREATE INDEX idx_referral_earnings_created ON referral_earnings(created_at);
			`).Error; err != nil {
				return err
			}

			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS referral_payouts (
					id UUID PRIMARY KEY,
					referrer_id BIGINT NOT NULL REFERENCES referral_users(user_id),
					amount DECIMAL(20,2) NOT NULL,
					method VARCHAR(20) NOT NULL,
					recipient_info VARCHAR(200),
					status VARCHAR(20) DEFAULT 'requested',
					admin_notes TEXT,
					transaction_details TEXT,
					processed_at TIMESTAMP WITH TIME ZONE,
					completed_at TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX idx_referral_payouts_referrer_status ON referral_payouts(referrer_id, status);
				CREATE INDEX idx_referral_payouts_created ON referral_payouts(created_at);
			`).Error; err != nil {
				return err
			}

			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS payout_settlements (
					id UUID PRIMARY KEY,
					payout_id UUID NOT NULL REFERENCES referral_payouts(id),
					earning_id UUID NOT NULL UNIQUE REFERENCES referral_earnings(id),
					amount DECIMAL(20,2) NOT NULL,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE INDEX idx_payout_settlements_payout ON payout_settlements(payout_id);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec(`
				DROP TABLE IF EXISTS payout_settlements;
				DROP TABLE IF EXISTS referral_payouts;
				DROP TABLE IF EXISTS referral_earnings;
				DROP TABLE IF EXISTS client_orders;
				DROP TABLE IF EXISTS referral_users;
			`).Error
		},
	}
}
