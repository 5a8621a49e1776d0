package fees

import (
	"fmt"

	"homestay-registration-backend/db/models"
	"homestay-registration-backend/utils/apperrors"

	"github.com/shopspring/decimal"
)

// RateBand is the [Min, Max) nightly-rate range of one category. The top
// category has no Max.
type RateBand struct {
	Min decimal.Decimal  `json:"min"`
	Max *decimal.Decimal `json:"max,omitempty"`
}

// Contains reports whether rate falls inside the band.
func (b RateBand) Contains(rate decimal.Decimal) bool {
	if rate.LessThan(b.Min) {
		return false
	}
	return b.Max == nil || rate.LessThan(*b.Max)
}

func (b RateBand) String() string {
	if b.Max == nil {
		return fmt.Sprintf("%s and above", rupees(b.Min))
	}
	return fmt.Sprintf("%s up to %s", rupees(b.Min), rupees(*b.Max))
}

// RateBands holds the admin-configured band of every category.
type RateBands struct {
	Silver  RateBand `json:"silver"`
	Gold    RateBand `json:"gold"`
	Diamond RateBand `json:"diamond"`
}

// Band returns the band configured for category.
func (rb RateBands) Band(category models.Category) (RateBand, bool) {
	switch category {
	case models.CategorySilver:
		return rb.Silver, true
	case models.CategoryGold:
		return rb.Gold, true
	case models.CategoryDiamond:
		return rb.Diamond, true
	}
	return RateBand{}, false
}

// DefaultRateBands are used when no bands have been configured.
func DefaultRateBands() RateBands {
	silverMax := decimal.NewFromInt(3000)
	goldMax := decimal.NewFromInt(10000)
	return RateBands{
		Silver:  RateBand{Min: decimal.Zero, Max: &silverMax},
		Gold:    RateBand{Min: silverMax, Max: &goldMax},
		Diamond: RateBand{Min: goldMax},
	}
}

// ValidateBands checks an edited band set before it is persisted. Bands must
// be bounded and ordered, with each maximum equal to the next category's
// minimum so every rate maps to exactly one category.
func ValidateBands(rb RateBands) error {
	if rb.Silver.Min.IsNegative() {
		return apperrors.Validation("invalid_rate_bands", "Silver minimum rate cannot be negative")
	}
	if rb.Silver.Max == nil {
		return apperrors.Validation("invalid_rate_bands", "Silver band must have a maximum rate")
	}
	if rb.Gold.Max == nil {
		return apperrors.Validation("invalid_rate_bands", "Gold band must have a maximum rate")
	}
	if rb.Diamond.Max != nil {
		return apperrors.Validation("invalid_rate_bands", "Diamond band is the top category and cannot have a maximum rate")
	}
	if !rb.Silver.Min.LessThan(*rb.Silver.Max) {
		return apperrors.Validation("invalid_rate_bands",
			"Silver minimum %s must be below its maximum %s", rupees(rb.Silver.Min), rupees(*rb.Silver.Max))
	}
	if !rb.Gold.Min.LessThan(*rb.Gold.Max) {
		return apperrors.Validation("invalid_rate_bands",
			"Gold minimum %s must be below its maximum %s", rupees(rb.Gold.Min), rupees(*rb.Gold.Max))
	}
	if err := checkBoundary("Silver", *rb.Silver.Max, "Gold", rb.Gold.Min); err != nil {
		return err
	}
	return checkBoundary("Gold", *rb.Gold.Max, "Diamond", rb.Diamond.Min)
}

func checkBoundary(lower string, lowerMax decimal.Decimal, upper string, upperMin decimal.Decimal) error {
	switch {
	case lowerMax.GreaterThan(upperMin):
		return apperrors.Validation("invalid_rate_bands",
			"%s maximum %s overlaps %s minimum %s", lower, rupees(lowerMax), upper, rupees(upperMin))
	case lowerMax.LessThan(upperMin):
		return apperrors.Validation("invalid_rate_bands",
			"%s maximum %s leaves a gap before %s minimum %s", lower, rupees(lowerMax), upper, rupees(upperMin))
	}
	return nil
}

// CategoryForRate returns the category whose band contains rate.
func CategoryForRate(rb RateBands, rate decimal.Decimal) (models.Category, bool) {
	for _, c := range models.Categories {
		band, _ := rb.Band(c)
		if band.Contains(rate) {
			return c, true
		}
	}
	return "", false
}

func rupees(d decimal.Decimal) string {
	return "₹" + d.Round(2).String()
}
