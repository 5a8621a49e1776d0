package controllers

import (
	"context"
	"strings"

	"homestay-registration-backend/applications/fees"
	"homestay-registration-backend/documents/validators"
	"homestay-registration-backend/middleware"
	settingsServices "homestay-registration-backend/settings/services"
	"homestay-registration-backend/utils"
	"homestay-registration-backend/utils/apperrors"

	"github.com/gofiber/fiber/v2"
)

type SettingsController struct {
	Provider settingsServices.Provider
	Service  *settingsServices.SettingsService
}

// CurrentSettings is the effective business configuration.
type CurrentSettings struct {
	UploadPolicy         validators.UploadPolicy `json:"upload_policy"`
	CategoryRateBands    fees.RateBands          `json:"category_rate_bands"`
	FeeSchedule          fees.FeeSchedule        `json:"fee_schedule"`
	RoomRules            fees.RoomRules          `json:"room_rules"`
	DASendBackEnabled    bool                    `json:"da_send_back_enabled"`
	LegacyForwardAllowed bool                    `json:"legacy_forward_allowed"`
}

func (sc *SettingsController) current(ctx context.Context) (CurrentSettings, error) {
	var out CurrentSettings
	var err error
	if out.UploadPolicy, err = sc.Provider.UploadPolicy(ctx); err != nil {
		return out, err
	}
	if out.CategoryRateBands, err = sc.Provider.CategoryRateBands(ctx); err != nil {
		return out, err
	}
	if out.FeeSchedule, err = sc.Provider.FeeSchedule(ctx); err != nil {
		return out, err
	}
	if out.RoomRules, err = sc.Provider.RoomRules(ctx); err != nil {
		return out, err
	}
	if out.DASendBackEnabled, err = sc.Provider.DASendBackEnabled(ctx); err != nil {
		return out, err
	}
	out.LegacyForwardAllowed, err = sc.Provider.LegacyForwardAllowed(ctx)
	return out, err
}

func (sc *SettingsController) GetSettingsController(c *fiber.Ctx) error {
	settings, err := sc.current(c.UserContext())
	if err != nil {
		return utils.RespondError(c, apperrors.Infrastructure("settings_unavailable", err))
	}
	return utils.RespondData(c, fiber.StatusOK, "Settings retrieved", settings)
}

func (sc *SettingsController) UpdateCategoryRateBandsController(c *fiber.Ctx) error {
	actor, _ := middleware.ActorFrom(c)
	var bands fees.RateBands
	if err := c.BodyParser(&bands); err != nil {
		return utils.RespondError(c, apperrors.Validation("invalid_payload", "Invalid request payload: %v", err))
	}

	saved, err := sc.Service.UpdateCategoryRateBands(c.UserContext(), actor, bands)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return utils.RespondData(c, fiber.StatusOK, "Category rate bands updated", saved)
}

func (sc *SettingsController) UpdateFeeScheduleController(c *fiber.Ctx) error {
	actor, _ := middleware.ActorFrom(c)
	var schedule fees.FeeSchedule
	if err := c.BodyParser(&schedule); err != nil {
		return utils.RespondError(c, apperrors.Validation("invalid_payload", "Invalid request payload: %v", err))
	}

	saved, err := sc.Service.UpdateFeeSchedule(c.UserContext(), actor, schedule)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return utils.RespondData(c, fiber.StatusOK, "Fee schedule updated", saved)
}

func (sc *SettingsController) UpdateUploadPolicyController(c *fiber.Ctx) error {
	actor, _ := middleware.ActorFrom(c)
	var policy validators.UploadPolicy
	if err := c.BodyParser(&policy); err != nil {
		return utils.RespondError(c, apperrors.Validation("invalid_payload", "Invalid request payload: %v", err))
	}

	saved, err := sc.Service.UpdateUploadPolicy(c.UserContext(), actor, policy)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return utils.RespondData(c, fiber.StatusOK, "Upload policy updated", saved)
}

// FlagRequest toggles a workflow flag.
type FlagRequest struct {
	Enabled bool `json:"enabled"`
}

// SetFlagController accepts the flag key with hyphens or underscores.
func (sc *SettingsController) SetFlagController(c *fiber.Ctx) error {
	actor, _ := middleware.ActorFrom(c)
	var request FlagRequest
	if err := c.BodyParser(&request); err != nil {
		return utils.RespondError(c, apperrors.Validation("invalid_payload", "Invalid request payload: %v", err))
	}

	key := strings.ReplaceAll(c.Params("key"), "-", "_")
	if err := sc.Service.SetFlag(c.UserContext(), actor, key, request.Enabled); err != nil {
		return utils.RespondError(c, err)
	}
	return utils.RespondData(c, fiber.StatusOK, "Flag updated", fiber.Map{"key": key, "enabled": request.Enabled})
}
