package seeds

import (
	"encoding/json"
	"errors"
	"fmt"

	"homestay-registration-backend/applications/fees"
	"homestay-registration-backend/config"
	"homestay-registration-backend/db/models"
	"homestay-registration-backend/documents/validators"
	settingsServices "homestay-registration-backend/settings/services"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// defaultSettings lists the value each business setting starts with.
func defaultSettings() map[string]interface{} {
	return map[string]interface{}{
		models.SettingUploadPolicy:         validators.DefaultUploadPolicy(),
		models.SettingCategoryRateBands:    fees.DefaultRateBands(),
		models.SettingFeeSchedule:          fees.DefaultFeeSchedule(),
		models.SettingRoomRules:            fees.DefaultRoomRules(),
		models.SettingDASendBackEnabled:    settingsServices.DefaultDASendBackEnabled,
		models.SettingLegacyForwardAllowed: settingsServices.DefaultLegacyForwardAllowed,
	}
}

// SeedDefaultSettings writes the default of every business setting that has
// no row yet, so administrators edit stored values rather than implicit ones.
// Existing rows are never overwritten.
func SeedDefaultSettings(db *gorm.DB) error {
	config.Logger.Info("Starting settings seeding...")

	createdCount := 0
	skippedCount := 0

	for key, value := range defaultSettings() {
		var existing models.SystemSetting
		result := db.Where(map[string]interface{}{"key": key}).First(&existing)
		if result.Error == nil {
			skippedCount++
			continue
		}
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			config.Logger.Error("Error checking for existing setting",
				zap.String("settingKey", key),
				zap.Error(result.Error))
			return fmt.Errorf("error checking for setting %s: %w", key, result.Error)
		}

		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode default for %s: %w", key, err)
		}
		seededBy := "system"
		setting := models.SystemSetting{Key: key, Value: datatypes.JSON(encoded), UpdatedBy: &seededBy}
		if err := db.Create(&setting).Error; err != nil {
			config.Logger.Error("Failed to create setting",
				zap.String("settingKey", key),
				zap.Error(err))
			return fmt.Errorf("failed to create setting %s: %w", key, err)
		}
		createdCount++
		config.Logger.Info("Created default setting", zap.String("settingKey", key))
	}

	config.Logger.Info("Settings seeding completed",
		zap.Int("created", createdCount),
		zap.Int("skipped", skippedCount))
	return nil
}
