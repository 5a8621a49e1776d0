package services

import (
	"context"
	"encoding/json"

	"homestay-registration-backend/applications/fees"
	"homestay-registration-backend/db/models"
	"homestay-registration-backend/documents/validators"
	"homestay-registration-backend/settings/repositories"
	"homestay-registration-backend/utils/apperrors"

	"go.uber.org/zap"
)

// Invalidator drops a cached setting after it changes.
type Invalidator interface {
	Invalidate(ctx context.Context, key string) error
}

// SettingsService validates and persists admin edits to business settings.
type SettingsService struct {
	repo        repositories.SettingsRepository
	invalidator Invalidator
	logger      *zap.Logger
}

func NewSettingsService(repo repositories.SettingsRepository, invalidator Invalidator, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{repo: repo, invalidator: invalidator, logger: logger}
}

// UpdateCategoryRateBands rejects overlapping or gapped bands before saving.
func (s *SettingsService) UpdateCategoryRateBands(ctx context.Context, actor models.Actor, bands fees.RateBands) (fees.RateBands, error) {
	if err := requireAdmin(actor); err != nil {
		return fees.RateBands{}, err
	}
	if err := fees.ValidateBands(bands); err != nil {
		return fees.RateBands{}, err
	}
	return bands, s.save(ctx, actor, models.SettingCategoryRateBands, bands)
}

func (s *SettingsService) UpdateFeeSchedule(ctx context.Context, actor models.Actor, schedule fees.FeeSchedule) (fees.FeeSchedule, error) {
	if err := requireAdmin(actor); err != nil {
		return fees.FeeSchedule{}, err
	}
	if err := fees.ValidateSchedule(schedule); err != nil {
		return fees.FeeSchedule{}, err
	}
	return schedule, s.save(ctx, actor, models.SettingFeeSchedule, schedule)
}

func (s *SettingsService) UpdateUploadPolicy(ctx context.Context, actor models.Actor, policy validators.UploadPolicy) (validators.UploadPolicy, error) {
	if err := requireAdmin(actor); err != nil {
		return validators.UploadPolicy{}, err
	}
	for _, class := range []models.DocumentClass{models.ClassDocuments, models.ClassPhotos} {
		cp, _ := policy.For(class)
		if len(cp.AllowedExtensions) == 0 || len(cp.AllowedMimeTypes) == 0 {
			return validators.UploadPolicy{}, apperrors.Validation("invalid_upload_policy",
				"Upload policy for %s must allow at least one extension and one MIME type", class)
		}
		if cp.MaxFileSizeBytes <= 0 || cp.MaxTotalSizeBytes < cp.MaxFileSizeBytes {
			return validators.UploadPolicy{}, apperrors.Validation("invalid_upload_policy",
				"Upload policy for %s needs a positive per-file limit no larger than the total limit", class)
		}
	}
	return policy, s.save(ctx, actor, models.SettingUploadPolicy, policy)
}

// SetFlag toggles one of the workflow feature flags.
func (s *SettingsService) SetFlag(ctx context.Context, actor models.Actor, key string, enabled bool) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if key != models.SettingDASendBackEnabled && key != models.SettingLegacyForwardAllowed {
		return apperrors.Validation("unknown_flag", "Unknown workflow flag %q", key)
	}
	return s.save(ctx, actor, key, enabled)
}

func (s *SettingsService) save(ctx context.Context, actor models.Actor, key string, value interface{}) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return apperrors.Infrastructure("settings_encode_failed", err)
	}
	if err := s.repo.Upsert(ctx, key, encoded, actor.UserID.String()); err != nil {
		return apperrors.Infrastructure("settings_save_failed", err)
	}
	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, key); err != nil {
			s.logger.Error("Failed to invalidate cached setting", zap.String("settingKey", key), zap.Error(err))
		}
	}
	s.logger.Info("Setting updated", zap.String("settingKey", key), zap.String("actorID", actor.UserID.String()))
	return nil
}

func requireAdmin(actor models.Actor) error {
	if actor.Role != models.AdminRole {
		return apperrors.Unauthorized("admin_only", "Only administrators may change settings")
	}
	return nil
}
