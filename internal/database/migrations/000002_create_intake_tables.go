package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createIntakeTables creates the intake, portfolio and session tables
func createIntakeTables() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_intake_tables",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS team_applications (
					id UUID PRIMARY KEY,
					user_id BIGINT NOT NULL,
					username VARCHAR(100),
					full_name VARCHAR(200) NOT NULL,
					age VARCHAR(10) NOT NULL,
					experience VARCHAR(500) NOT NULL,
					stack TEXT NOT NULL,
					about TEXT NOT NULL,
					motivation TEXT NOT NULL,
					role VARCHAR(200) NOT NULL,
					status VARCHAR(20) DEFAULT 'new',
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX idx_team_applications_user_status ON team_applications(user_id, status);
			`).Error; err != nil {
				return err
			}

			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS consultation_requests (
					id UUID PRIMARY KEY,
					user_id BIGINT NOT NULL,
					username VARCHAR(100),
					question TEXT NOT NULL,
					answer TEXT,
					status VARCHAR(20) DEFAULT 'new',
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX idx_consultation_requests_user_status ON consultation_requests(user_id, status);
			`).Error; err != nil {
				return err
			}

			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS portfolio_projects (
					id UUID PRIMARY KEY,
					slug VARCHAR(220) UNIQUE,
					title VARCHAR(200) NOT NULL,
					description TEXT NOT NULL,
					details TEXT NOT NULL,
					cost VARCHAR(100) NOT NULL,
					image_url VARCHAR(500),
					video_url VARCHAR(500),
					bot_url VARCHAR(500),
					technologies VARCHAR(500),
					duration VARCHAR(100),
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);
			`).Error; err != nil {
				return err
			}

			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS user_sessions (
					id UUID PRIMARY KEY,
					user_id BIGINT NOT NULL UNIQUE,
					current_state VARCHAR(100),
					state_data JSONB,
					last_activity TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE INDEX idx_user_sessions_activity ON user_sessions(last_activity);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec(`
				DROP TABLE IF EXISTS user_sessions;
				DROP TABLE IF EXISTS portfolio_projects;
				DROP TABLE IF EXISTS consultation_requests;
				DROP TABLE IF EXISTS team_applications;
			`).Error
		},
	}
}
