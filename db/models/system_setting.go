package models

import (
	"time"

	"gorm.io/datatypes"
)

// Setting keys read by the settings provider.
const (
	SettingUploadPolicy         = "upload_policy"
	SettingCategoryRateBands    = "category_rate_bands"
	SettingFeeSchedule          = "fee_schedule"
	SettingRoomRules            = "room_rules"
	SettingDASendBackEnabled    = "da_send_back_enabled"
	SettingLegacyForwardAllowed = "legacy_forward_allowed"
)

// SystemSetting is an admin-editable key with a JSON value.
type SystemSetting struct {
	Key       string         `gorm:"primaryKey;type:varchar(64)" json:"key"`
	Value     datatypes.JSON `gorm:"not null" json:"value"`
	UpdatedBy *string        `json:"updated_by"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}
