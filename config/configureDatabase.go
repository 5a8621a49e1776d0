package config

import (
	"fmt"
	"time"

	"homestay-registration-backend/db/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// allModels defines all models that should be migrated.
// This is the only place you need to add new models
var allModels = []interface{}{
	&models.User{},
	&models.Application{},
	&models.Document{},
	&models.ApplicationAction{},
	&models.SystemSetting{},
	&models.EmailLog{},
}

// Migrate auto-migrates every registered model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(allModels...); err != nil {
		return fmt.Errorf("failed to migrate tables: %w", err)
	}
	return nil
}

// GormConfig is shared by the postgres connection and test databases.
// TranslateError maps driver unique violations to gorm.ErrDuplicatedKey.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	}
}

func ConfigureDatabase() *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
		GetEnv("DB_HOST"),
		GetEnv("POSTGRES_USER"),
		GetEnv("POSTGRES_PASSWORD"),
		GetEnv("POSTGRES_DB"),
		GetEnvDefault("DB_PORT", "5432"),
		GetEnvDefault("DB_TIMEZONE", "Asia/Kolkata"),
	)

	db, err := gorm.Open(postgres.Open(dsn), GormConfig())
	if err != nil {
		Logger.Fatal("[DB-CONNECT] Failed to connect to database", zap.Error(err))
	}

	if err := Migrate(db); err != nil {
		Logger.Fatal("[DB-MIGRATE] Migration failed", zap.Error(err))
	}
	Logger.Info("Tables migrated successfully")

	if err := CreateInFlightApplicationIndex(db); err != nil {
		Logger.Fatal("[DB-MIGRATE] Failed to create in-flight application index", zap.Error(err))
	}
	if err := CreateAuditAppendOnlyRule(db); err != nil {
		Logger.Fatal("[DB-MIGRATE] Failed to create audit append-only rules", zap.Error(err))
	}

	// Connection pool configuration
	sqlDB, err := db.DB()
	if err != nil {
		Logger.Fatal("[DB-POOL] Failed to get underlying DB connection", zap.Error(err))
	}
	sqlDB.SetMaxOpenConns(GetEnvInt("DB_MAX_OPEN_CONNS", 30))
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)

	Logger.Info("[DB-STATUS] Database setup complete")
	return db
}
