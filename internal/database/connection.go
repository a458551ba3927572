// internal/database/connection.go
package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/footfed/licences-backend/internal/config"
	"github.com/footfed/licences-backend/internal/models"
)

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var gormConfig *gorm.Config

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.Info("Database connection established")
	return db, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed")
	}
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations...")

	err := db.AutoMigrate(
		&models.Club{},
		&models.User{},
		&models.Demande{},
		&models.DemandeAttachment{},
		&models.StatusAudit{},
		&models.NotificationHistory{},
		&models.RequestAudit{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logrus.Info("Database migrations completed")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// Demande indexes
		"CREATE INDEX IF NOT EXISTS idx_demandes_club_season ON demandes(club_id, season)",
		"CREATE INDEX IF NOT EXISTS idx_demandes_statut ON demandes(statut_code)",
		"CREATE INDEX IF NOT EXISTS idx_demandes_player ON demandes(player_last_name, player_first_name)",
		"CREATE INDEX IF NOT EXISTS idx_demandes_created_at ON demandes(created_at DESC)",

		// Status audit indexes
		"CREATE INDEX IF NOT EXISTS idx_status_audits_demande ON status_audits(demande_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_status_audits_actor ON status_audits(actor_id)",

		// Notification history indexes
		"CREATE INDEX IF NOT EXISTS idx_notification_histories_demande ON notification_histories(demande_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_notification_histories_status ON notification_histories(status)",

		// Request audit indexes
		"CREATE INDEX IF NOT EXISTS idx_request_audits_user_action ON request_audits(user_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_request_audits_resource ON request_audits(resource_type, resource_id)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			logrus.WithError(err).Warnf("Failed to create index: %s", index)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// Seed initial data
func SeedInitialData(db *gorm.DB) error {
	logrus.Info("Seeding initial data...")

	var adminCount int64
	db.Model(&models.User{}).Where("role = ?", models.UserRoleAdmin).Count(&adminCount)

	if adminCount == 0 {
		admin := &models.User{
			Username: "admin",
			Email:    "admin@federation-foot.example",
			Role:     models.UserRoleAdmin,
			Status:   models.UserStatusActive,
		}

		if err := admin.SetPassword("admin123!@#"); err != nil {
			return fmt.Errorf("failed to set admin password: %w", err)
		}

		if err := db.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		logrus.Info("Default admin user created")
	}

	defaultClubs := []models.Club{
		{Code: "ASF", Name: "AS de la Capitale", City: "Libreville", ContactEmail: "contact@as-capitale.example"},
		{Code: "USB", Name: "US du Littoral", City: "Port-Gentil", ContactEmail: "secretariat@us-littoral.example"},
	}

	for _, club := range defaultClubs {
		var count int64
		db.Model(&models.Club{}).Where("code = ?", club.Code).Count(&count)
		if count == 0 {
			if err := db.Create(&club).Error; err != nil {
				logrus.WithError(err).Warnf("Failed to seed club %s", club.Code)
			}
		}
	}

	logrus.Info("Initial data seeding completed")
	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
