package fees

import (
	"homestay-registration-backend/db/models"
	"homestay-registration-backend/utils/apperrors"

	"github.com/shopspring/decimal"
)

// ValidateCategory checks that the highest declared room rate falls inside
// the band of the chosen category. On mismatch the error names the category
// that does fit so the owner can correct the selection.
func ValidateCategory(category models.Category, rooms RoomConfiguration, bands RateBands) error {
	if !category.Valid() {
		return apperrors.Validation("invalid_category", "Select a category: silver, gold or diamond")
	}

	highest := rooms.HighestRate()
	if !highest.IsPositive() {
		return apperrors.Validation("missing_room_rate", "At least one room rate is required to determine the category")
	}

	band, _ := bands.Band(category)
	if band.Contains(highest) {
		return nil
	}

	fit, ok := CategoryForRate(bands, highest)
	if !ok {
		return apperrors.Validation("category_tariff_mismatch",
			"Highest room rate %s is below every category band", rupees(highest))
	}
	fitBand, _ := bands.Band(fit)
	return apperrors.Validation("category_tariff_mismatch",
		"%s category covers %s but your highest room rate is %s; the %s category (%s) fits this tariff",
		titleCase(string(category)), band, rupees(highest), fit, fitBand).
		WithDetail("suggested_category", fit)
}

// RecommendCategory returns the category that fits the highest declared rate.
func RecommendCategory(rooms RoomConfiguration, bands RateBands) *models.Category {
	highest := rooms.HighestRate()
	if highest.Equal(decimal.Zero) {
		return nil
	}
	fit, ok := CategoryForRate(bands, highest)
	if !ok {
		return nil
	}
	return &fit
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
