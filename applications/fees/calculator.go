package fees

import (
	"homestay-registration-backend/db/models"
	"homestay-registration-backend/utils/apperrors"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FeeSchedule is the admin-configured base fee matrix and discount percentages.
type FeeSchedule struct {
	BaseFees                          map[models.Category]map[models.LocationType]decimal.Decimal `json:"base_fees"`
	ThreeYearDiscountPercent          decimal.Decimal                                             `json:"three_year_discount_percent"`
	FemaleOwnerDiscountPercent        decimal.Decimal                                             `json:"female_owner_discount_percent"`
	SpecialSubdivisionDiscountPercent decimal.Decimal                                             `json:"special_subdivision_discount_percent"`
}

func DefaultFeeSchedule() FeeSchedule {
	row := func(mc, tcp, gp int64) map[models.LocationType]decimal.Decimal {
		return map[models.LocationType]decimal.Decimal{
			models.LocationMunicipalCorporation: decimal.NewFromInt(mc),
			models.LocationTCP:                  decimal.NewFromInt(tcp),
			models.LocationGramPanchayat:        decimal.NewFromInt(gp),
		}
	}
	return FeeSchedule{
		BaseFees: map[models.Category]map[models.LocationType]decimal.Decimal{
			models.CategoryDiamond: row(18000, 12000, 10000),
			models.CategoryGold:    row(12000, 8000, 6000),
			models.CategorySilver:  row(8000, 5000, 3000),
		},
		ThreeYearDiscountPercent:          decimal.NewFromInt(10),
		FemaleOwnerDiscountPercent:        decimal.NewFromInt(5),
		SpecialSubdivisionDiscountPercent: decimal.NewFromInt(50),
	}
}

// ValidateSchedule rejects a schedule with missing cells or out-of-range percentages.
func ValidateSchedule(s FeeSchedule) error {
	for _, c := range models.Categories {
		for _, l := range []models.LocationType{models.LocationMunicipalCorporation, models.LocationTCP, models.LocationGramPanchayat} {
			fee, ok := s.BaseFees[c][l]
			if !ok {
				return apperrors.Validation("invalid_fee_schedule", "Base fee for %s category in %s areas is missing", c, l)
			}
			if fee.IsNegative() {
				return apperrors.Validation("invalid_fee_schedule", "Base fee for %s category in %s areas cannot be negative", c, l)
			}
		}
	}
	discounts := []struct {
		label   string
		percent decimal.Decimal
	}{
		{"3-year validity", s.ThreeYearDiscountPercent},
		{"female owner", s.FemaleOwnerDiscountPercent},
		{"special sub-division", s.SpecialSubdivisionDiscountPercent},
	}
	for _, d := range discounts {
		if d.percent.IsNegative() || d.percent.GreaterThan(hundred) {
			return apperrors.Validation("invalid_fee_schedule", "%s discount must be between 0 and 100 percent", d.label)
		}
	}
	return nil
}

// FeeInput is everything the fee depends on.
type FeeInput struct {
	Category             models.Category
	LocationType         models.LocationType
	ValidityYears        int
	OwnerGender          models.Gender
	IsSpecialSubdivision bool
}

// FeeBreakdown is the persisted fee line-up. TotalFee is always
// TotalBeforeDiscounts minus TotalDiscount, and never negative.
type FeeBreakdown struct {
	BaseFee                    decimal.Decimal `json:"base_fee"`
	TotalBeforeDiscounts       decimal.Decimal `json:"total_before_discounts"`
	ValidityDiscount           decimal.Decimal `json:"validity_discount"`
	FemaleOwnerDiscount        decimal.Decimal `json:"female_owner_discount"`
	SpecialSubdivisionDiscount decimal.Decimal `json:"special_subdivision_discount"`
	TotalDiscount              decimal.Decimal `json:"total_discount"`
	TotalFee                   decimal.Decimal `json:"total_fee"`
	ConfigurationError         bool            `json:"configuration_error"`
}

// CalculateFee computes the fee for in against the schedule. Every amount is
// rounded to two decimal places. Discounts are taken on the pre-discount
// total and summed; if they exceed it the discount is clamped and
// ConfigurationError is set.
func CalculateFee(in FeeInput, s FeeSchedule) (FeeBreakdown, error) {
	if in.ValidityYears != 1 && in.ValidityYears != 3 {
		return FeeBreakdown{}, apperrors.Validation("invalid_validity_years",
			"Certificate validity must be 1 or 3 years, got %d", in.ValidityYears)
	}
	if !in.Category.Valid() {
		return FeeBreakdown{}, apperrors.Validation("invalid_category", "Select a category: silver, gold or diamond")
	}
	if !in.LocationType.Valid() {
		return FeeBreakdown{}, apperrors.Validation("invalid_location_type", "Location type must be one of mc, tcp or gp")
	}
	base, ok := s.BaseFees[in.Category][in.LocationType]
	if !ok {
		return FeeBreakdown{}, apperrors.Validation("fee_not_configured",
			"No base fee is configured for %s category in %s areas", in.Category, in.LocationType)
	}

	var b FeeBreakdown
	b.BaseFee = base.Round(2)
	b.TotalBeforeDiscounts = b.BaseFee.Mul(decimal.NewFromInt(int64(in.ValidityYears))).Round(2)
	b.ValidityDiscount = decimal.Zero
	b.FemaleOwnerDiscount = decimal.Zero
	b.SpecialSubdivisionDiscount = decimal.Zero

	if in.ValidityYears == 3 {
		b.ValidityDiscount = percentOf(b.TotalBeforeDiscounts, s.ThreeYearDiscountPercent)
	}
	if in.OwnerGender == models.GenderFemale {
		b.FemaleOwnerDiscount = percentOf(b.TotalBeforeDiscounts, s.FemaleOwnerDiscountPercent)
	}
	if in.IsSpecialSubdivision {
		b.SpecialSubdivisionDiscount = percentOf(b.TotalBeforeDiscounts, s.SpecialSubdivisionDiscountPercent)
	}

	b.TotalDiscount = b.ValidityDiscount.Add(b.FemaleOwnerDiscount).Add(b.SpecialSubdivisionDiscount).Round(2)
	if b.TotalDiscount.GreaterThan(b.TotalBeforeDiscounts) {
		b.TotalDiscount = b.TotalBeforeDiscounts
		b.ConfigurationError = true
	}
	b.TotalFee = b.TotalBeforeDiscounts.Sub(b.TotalDiscount).Round(2)
	return b, nil
}

func percentOf(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Div(hundred).Round(2)
}

// FeeInputOf reads the fee inputs persisted on an application.
func FeeInputOf(app *models.Application) FeeInput {
	return FeeInput{
		Category:             app.Category,
		LocationType:         app.LocationType,
		ValidityYears:        app.ValidityYears,
		OwnerGender:          app.OwnerGender,
		IsSpecialSubdivision: app.IsSpecialSubdivision,
	}
}

// ApplyTo stores the breakdown on app.
func (b FeeBreakdown) ApplyTo(app *models.Application) {
	app.BaseFee = b.BaseFee
	app.TotalBeforeDiscounts = b.TotalBeforeDiscounts
	app.ValidityDiscount = b.ValidityDiscount
	app.FemaleOwnerDiscount = b.FemaleOwnerDiscount
	app.SpecialSubdivisionDiscount = b.SpecialSubdivisionDiscount
	app.TotalDiscount = b.TotalDiscount
	app.TotalFee = b.TotalFee
	app.FeeConfigurationError = b.ConfigurationError
}

// BreakdownOf reads the persisted breakdown from app.
func BreakdownOf(app *models.Application) FeeBreakdown {
	return FeeBreakdown{
		BaseFee:                    app.BaseFee,
		TotalBeforeDiscounts:       app.TotalBeforeDiscounts,
		ValidityDiscount:           app.ValidityDiscount,
		FemaleOwnerDiscount:        app.FemaleOwnerDiscount,
		SpecialSubdivisionDiscount: app.SpecialSubdivisionDiscount,
		TotalDiscount:              app.TotalDiscount,
		TotalFee:                   app.TotalFee,
		ConfigurationError:         app.FeeConfigurationError,
	}
}
