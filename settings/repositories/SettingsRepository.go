package repositories

import (
	"context"
	"errors"
	"fmt"

	"homestay-registration-backend/db/models"
	"homestay-registration-backend/utils/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsRepository interface {
	Get(ctx context.Context, key string) (*models.SystemSetting, error)
	Upsert(ctx context.Context, key string, value []byte, updatedBy string) error
}

type settingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context, key string) (*models.SystemSetting, error) {
	var setting models.SystemSetting
	if err := r.db.WithContext(ctx).Where(map[string]interface{}{"key": key}).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("setting %s: %w", key, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return &setting, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, key string, value []byte, updatedBy string) error {
	setting := models.SystemSetting{
		Key:       key,
		Value:     datatypes.JSON(value),
		UpdatedBy: &updatedBy,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_by", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}
