package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"homestay-registration-backend/applications/fees"
	"homestay-registration-backend/db/models"
	"homestay-registration-backend/documents/validators"
	"homestay-registration-backend/settings/repositories"
	"homestay-registration-backend/utils/apperrors"
)

// Provider supplies the admin-configured business settings. Callers re-read
// it on every operation; implementations decide whether to cache.
type Provider interface {
	UploadPolicy(ctx context.Context) (validators.UploadPolicy, error)
	CategoryRateBands(ctx context.Context) (fees.RateBands, error)
	FeeSchedule(ctx context.Context) (fees.FeeSchedule, error)
	RoomRules(ctx context.Context) (fees.RoomRules, error)
	DASendBackEnabled(ctx context.Context) (bool, error)
	LegacyForwardAllowed(ctx context.Context) (bool, error)
}

// Defaults applied when a key has never been saved.
const (
	DefaultDASendBackEnabled    = true
	DefaultLegacyForwardAllowed = false
)

// DBProvider reads settings from the system_settings table.
type DBProvider struct {
	repo repositories.SettingsRepository
}

func NewDBProvider(repo repositories.SettingsRepository) *DBProvider {
	return &DBProvider{repo: repo}
}

func (p *DBProvider) UploadPolicy(ctx context.Context) (validators.UploadPolicy, error) {
	return load(ctx, p.repo, models.SettingUploadPolicy, validators.DefaultUploadPolicy())
}

func (p *DBProvider) CategoryRateBands(ctx context.Context) (fees.RateBands, error) {
	return load(ctx, p.repo, models.SettingCategoryRateBands, fees.DefaultRateBands())
}

func (p *DBProvider) FeeSchedule(ctx context.Context) (fees.FeeSchedule, error) {
	return load(ctx, p.repo, models.SettingFeeSchedule, fees.DefaultFeeSchedule())
}

func (p *DBProvider) RoomRules(ctx context.Context) (fees.RoomRules, error) {
	return load(ctx, p.repo, models.SettingRoomRules, fees.DefaultRoomRules())
}

func (p *DBProvider) DASendBackEnabled(ctx context.Context) (bool, error) {
	return load(ctx, p.repo, models.SettingDASendBackEnabled, DefaultDASendBackEnabled)
}

func (p *DBProvider) LegacyForwardAllowed(ctx context.Context) (bool, error) {
	return load(ctx, p.repo, models.SettingLegacyForwardAllowed, DefaultLegacyForwardAllowed)
}

func load[T any](ctx context.Context, repo repositories.SettingsRepository, key string, fallback T) (T, error) {
	setting, err := repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fallback, nil
		}
		return fallback, err
	}
	var value T
	if err := json.Unmarshal(setting.Value, &value); err != nil {
		return fallback, fmt.Errorf("setting %s holds invalid JSON: %w", key, err)
	}
	return value, nil
}
