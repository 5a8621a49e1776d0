package config

import (
	"errors"
	"fmt"

	"homestay-registration-backend/db/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SeedInitialUsers creates the bootstrap admin and system principals when
// they do not exist yet. SEED_ADMIN_MOBILE overrides the admin's mobile.
func SeedInitialUsers(db *gorm.DB) error {
	seeds := []models.User{
		{
			FullName:  "System Administrator",
			Mobile:    GetEnvDefault("SEED_ADMIN_MOBILE", "9000000000"),
			Role:      models.AdminRole,
			Active:    true,
			CreatedBy: "system",
		},
		{
			FullName:  "Payment Gateway",
			Mobile:    "0000000000",
			Role:      models.SystemRole,
			Active:    true,
			CreatedBy: "system",
		},
	}

	for _, seed := range seeds {
		var existing models.User
		err := db.Where("mobile = ?", seed.Mobile).First(&existing).Error
		if err == nil {
			Logger.Info("Seed user already exists", zap.String("mobile", existing.Mobile), zap.String("role", string(existing.Role)))
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("error checking for existing user: %w", err)
		}

		user := seed
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create seed user %s: %w", seed.FullName, err)
		}
		Logger.Info("Seed user created", zap.String("userID", user.ID.String()), zap.String("role", string(user.Role)))
	}
	return nil
}
