package workflow

import (
	"context"
	"strings"

	"homestay-registration-backend/applications/fees"
	"homestay-registration-backend/applications/requests"
	"homestay-registration-backend/applications/routing"
	"homestay-registration-backend/db/models"
	"homestay-registration-backend/utils/apperrors"

	"go.uber.org/zap"
)

// requireComplete checks the mandatory field set for the application's kind.
func requireComplete(app *models.Application) error {
	missing := func(code, msg string) error { return apperrors.Validation(code, "%s", msg) }

	switch {
	case app.OwnerName == "":
		return missing("missing_owner_name", "Owner name is required")
	case !app.OwnerGender.Valid():
		return missing("missing_owner_gender", "Owner gender is required")
	case !requests.ValidMobile(app.OwnerMobile):
		return missing("invalid_mobile", "A 10 digit owner mobile number is required")
	case app.PropertyName == "":
		return missing("missing_property_name", "Property name is required")
	case app.DeclaredDistrict == "":
		return missing("missing_district", "District is required")
	case tehsilOf(app) == "":
		return missing("missing_tehsil", "Tehsil is required")
	case app.AddressLine == "":
		return missing("missing_address", "Address is required")
	case !requests.ValidPincode(app.Pincode):
		return missing("invalid_pincode", "A 6 digit pincode is required")
	case !app.LocationType.Valid():
		return missing("invalid_location_type", "Location type must be one of mc, tcp or gp")
	case app.IsLegacyRC && (app.LegacyCertificateNumber == nil || *app.LegacyCertificateNumber == ""):
		return missing("missing_legacy_certificate_number", "Enter the existing registration certificate number for a legacy RC application")
	case app.Kind.RequiresParent() && app.ParentApplicationID == nil:
		return missing("missing_parent_application", "Select the registration this request applies to")
	}
	if app.Kind != models.KindCancelCertificate && !app.SelectedCategory.Valid() {
		return missing("invalid_category", "Select a category: silver, gold or diamond")
	}
	return nil
}

func tehsilOf(app *models.Application) string {
	if app.TehsilOther != nil && strings.TrimSpace(*app.TehsilOther) != "" {
		return strings.TrimSpace(*app.TehsilOther)
	}
	return strings.TrimSpace(app.Tehsil)
}

// validateSubmission runs every invariant a submission must satisfy and
// recomputes the derived room totals, category and fee on tc.app. It is
// shared by first submission and correction resubmission.
func (s *Service) validateSubmission(ctx context.Context, tc *transitionContext) error {
	app := tc.app
	if err := s.checkInFlight(ctx, app); err != nil {
		return err
	}
	if err := requireComplete(app); err != nil {
		return err
	}

	rooms := fees.RoomsOf(app)
	if app.Kind != models.KindCancelCertificate {
		rules, err := s.settings.RoomRules(ctx)
		if err != nil {
			return apperrors.Infrastructure("settings_unavailable", err)
		}
		if err := fees.ValidateRooms(rooms, rules); err != nil {
			return err
		}
		bands, err := s.settings.CategoryRateBands(ctx)
		if err != nil {
			return apperrors.Infrastructure("settings_unavailable", err)
		}
		if err := fees.ValidateCategory(app.SelectedCategory, rooms, bands); err != nil {
			return err
		}
	}
	fees.ApplyRooms(app, rooms)

	if !tc.trusted {
		policy, err := s.settings.UploadPolicy(ctx)
		if err != nil {
			return apperrors.Infrastructure("settings_unavailable", err)
		}
		docs, err := s.store.ListDocuments(ctx, app.ID)
		if err != nil {
			return apperrors.Infrastructure("document_lookup_failed", err)
		}
		if err := s.validator.ValidateUploads(docs, policy); err != nil {
			return err
		}
		if err := s.validator.ValidateRequiredDocuments(app.Kind, app.IsLegacyRC, docs); err != nil {
			return err
		}
	}

	app.Category = app.SelectedCategory
	return s.computeFee(ctx, app)
}

func (s *Service) computeFee(ctx context.Context, app *models.Application) error {
	if app.Kind == models.KindCancelCertificate {
		fees.FeeBreakdown{}.ApplyTo(app)
		return nil
	}
	schedule, err := s.settings.FeeSchedule(ctx)
	if err != nil {
		return apperrors.Infrastructure("settings_unavailable", err)
	}
	previous := fees.BreakdownOf(app)
	breakdown, err := fees.CalculateFee(fees.FeeInputOf(app), schedule)
	if err != nil {
		return err
	}
	breakdown.ApplyTo(app)
	if app.ApplicationNumber != nil && !previous.TotalFee.Equal(breakdown.TotalFee) {
		s.logger.Info("Fee changed on resubmission",
			zap.String("applicationID", app.ID.String()),
			zap.String("applicationNumber", *app.ApplicationNumber),
			zap.String("previousFee", previous.TotalFee.StringFixed(2)),
			zap.String("totalFee", breakdown.TotalFee.StringFixed(2)))
	}
	if breakdown.ConfigurationError {
		s.logger.Warn("Fee discounts exceed the pre-discount total; clamped",
			zap.String("applicationID", app.ID.String()),
			zap.String("category", string(app.Category)),
			zap.String("locationType", string(app.LocationType)))
	}
	return nil
}

// checkInFlight enforces one non-draft, non-terminal application per owner.
func (s *Service) checkInFlight(ctx context.Context, app *models.Application) error {
	existing, err := s.store.FindInFlightApplication(ctx, app.OwnerID, app.ID)
	if err != nil {
		return apperrors.Infrastructure("in_flight_lookup_failed", err)
	}
	if existing == nil {
		return nil
	}
	return apperrors.Conflict("application_in_flight",
		"Application %s is already %s; only one application may be in progress at a time", existing.ID, existing.Status).
		WithDetail("existing_application_id", existing.ID).
		WithDetail("existing_status", existing.Status)
}

// prepareFirstSubmission takes a draft to submitted: routing, numbering and
// the first-submission stamp happen exactly once here.
func prepareFirstSubmission(ctx context.Context, s *Service, tc *transitionContext) error {
	app := tc.app
	tehsil := tehsilOf(app)
	app.District = routing.Resolve(app.DeclaredDistrict, tehsil)
	app.IsSpecialSubdivision = routing.IsSpecialSubdivision(app.DeclaredDistrict, tehsil)
	if err := s.validateSubmission(ctx, tc); err != nil {
		return err
	}
	app.FirstSubmittedAt = &tc.now
	app.SubmittedAt = &tc.now
	tc.issueAppNumber = app.ApplicationNumber == nil
	return nil
}
