package requests

import (
	"encoding/json"
	"regexp"
	"strings"

	"homestay-registration-backend/applications/fees"
	"homestay-registration-backend/db/models"
	"homestay-registration-backend/utils/apperrors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

var (
	mobilePattern  = regexp.MustCompile(`^[6-9][0-9]{9}$`)
	pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)
)

// AddressRequest is the LGD address hierarchy. Every tier has a free-text
// override for places missing from the directory.
type AddressRequest struct {
	District           string              `json:"district"`
	Tehsil             string              `json:"tehsil"`
	TehsilOther        *string             `json:"tehsil_other"`
	Block              *string             `json:"block"`
	BlockOther         *string             `json:"block_other"`
	UrbanBody          *string             `json:"urban_body"`
	UrbanBodyOther     *string             `json:"urban_body_other"`
	Ward               *string             `json:"ward"`
	WardOther          *string             `json:"ward_other"`
	GramPanchayat      *string             `json:"gram_panchayat"`
	GramPanchayatOther *string             `json:"gram_panchayat_other"`
	AddressLine        string              `json:"address_line"`
	Pincode            string              `json:"pincode"`
	LocationType       models.LocationType `json:"location_type"`
}

// ServiceLink ties a service request to the certificate it operates on.
type ServiceLink struct {
	ParentApplicationID uuid.UUID `json:"parent_application_id"`
	CertificateNumber   string    `json:"certificate_number"`
}

type RenewalRequest struct {
	ServiceLink
}

// RoomChangeRequest carries add_rooms and delete_rooms. The application's
// room configuration holds the complete set after the change.
type RoomChangeRequest struct {
	ServiceLink
	Reason string `json:"reason"`
}

type CancellationRequest struct {
	ServiceLink
	Reason string `json:"reason"`
}

// ApplicationRequest is the owner payload for creating or editing an
// application. Kind picks which of the service variants must be present.
type ApplicationRequest struct {
	Kind                    models.ApplicationKind `json:"application_kind"`
	OwnerName               string                 `json:"owner_name"`
	OwnerGender             models.Gender          `json:"owner_gender"`
	OwnerMobile             string                 `json:"owner_mobile"`
	OwnerEmail              *string                `json:"owner_email"`
	PropertyName            string                 `json:"property_name"`
	Address                 AddressRequest         `json:"address"`
	Rooms                   fees.RoomConfiguration `json:"rooms"`
	Category                models.Category        `json:"category"`
	ValidityYears           int                    `json:"validity_years"`
	IsLegacyRC              bool                   `json:"is_legacy_rc"`
	LegacyCertificateNumber *string                `json:"legacy_certificate_number"`

	Renewal      *RenewalRequest      `json:"renewal,omitempty"`
	AddRooms     *RoomChangeRequest   `json:"add_rooms,omitempty"`
	DeleteRooms  *RoomChangeRequest   `json:"delete_rooms,omitempty"`
	Cancellation *CancellationRequest `json:"cancellation,omitempty"`
}

// serviceContext is what gets persisted in Application.ServiceContext.
type serviceContext struct {
	CertificateNumber string `json:"certificate_number"`
	Reason            string `json:"reason,omitempty"`
}

// variant returns the service block matching Kind and how many blocks are set.
func (r *ApplicationRequest) variant() (link *ServiceLink, reason string, present int) {
	if r.Renewal != nil {
		present++
		if r.Kind == models.KindRenewal {
			link = &r.Renewal.ServiceLink
		}
	}
	if r.AddRooms != nil {
		present++
		if r.Kind == models.KindAddRooms {
			link, reason = &r.AddRooms.ServiceLink, r.AddRooms.Reason
		}
	}
	if r.DeleteRooms != nil {
		present++
		if r.Kind == models.KindDeleteRooms {
			link, reason = &r.DeleteRooms.ServiceLink, r.DeleteRooms.Reason
		}
	}
	if r.Cancellation != nil {
		present++
		if r.Kind == models.KindCancelCertificate {
			link, reason = &r.Cancellation.ServiceLink, r.Cancellation.Reason
		}
	}
	return link, strings.TrimSpace(reason), present
}

// ValidateShape checks the parts of the payload every save needs: a known
// kind with its matching service block, and well-formed contact fields when
// given. Completeness is checked at submission.
func (r *ApplicationRequest) ValidateShape() error {
	if !r.Kind.Valid() {
		return apperrors.Validation("invalid_application_kind",
			"Application kind must be one of new_registration, renewal, add_rooms, delete_rooms or cancel_certificate")
	}
	link, reason, present := r.variant()
	if r.Kind == models.KindNewRegistration && present > 0 {
		return apperrors.Validation("unexpected_service_details", "A new registration cannot carry renewal or room change details")
	}
	if r.Kind.RequiresParent() {
		if link == nil || present != 1 {
			return apperrors.Validation("missing_service_details", "A %s application needs its %s details and no others", r.Kind, r.Kind)
		}
		if link.ParentApplicationID == uuid.Nil {
			return apperrors.Validation("missing_parent_application", "Select the registration this %s applies to", r.Kind)
		}
		if strings.TrimSpace(link.CertificateNumber) == "" {
			return apperrors.Validation("missing_certificate_number", "Enter the registration certificate number for this %s", r.Kind)
		}
		if (r.Kind == models.KindDeleteRooms || r.Kind == models.KindCancelCertificate) && reason == "" {
			return apperrors.Validation("missing_reason", "A reason is required for %s", r.Kind)
		}
	}
	if mobile := strings.TrimSpace(r.OwnerMobile); mobile != "" && !mobilePattern.MatchString(mobile) {
		return apperrors.Validation("invalid_mobile", "Mobile number %s must be 10 digits starting with 6-9", mobile)
	}
	if pin := strings.TrimSpace(r.Address.Pincode); pin != "" && !pincodePattern.MatchString(pin) {
		return apperrors.Validation("invalid_pincode", "Pincode %s must be 6 digits", pin)
	}
	if r.OwnerGender != "" && !r.OwnerGender.Valid() {
		return apperrors.Validation("invalid_gender", "Owner gender must be male, female or other")
	}
	if r.Address.LocationType != "" && !r.Address.LocationType.Valid() {
		return apperrors.Validation("invalid_location_type", "Location type must be one of mc, tcp or gp")
	}
	if r.Category != "" && !r.Category.Valid() {
		return apperrors.Validation("invalid_category", "Select a category: silver, gold or diamond")
	}
	if r.ValidityYears != 0 && r.ValidityYears != 1 && r.ValidityYears != 3 {
		return apperrors.Validation("invalid_validity_years", "Certificate validity must be 1 or 3 years, got %d", r.ValidityYears)
	}
	return nil
}

// ApplyTo copies the owner-editable fields onto app. Kind is only written
// when app has none yet; room totals are derived, never copied.
func (r *ApplicationRequest) ApplyTo(app *models.Application) error {
	if app.Kind == "" {
		app.Kind = r.Kind
	}
	app.OwnerName = strings.TrimSpace(r.OwnerName)
	app.OwnerGender = r.OwnerGender
	app.OwnerMobile = strings.TrimSpace(r.OwnerMobile)
	app.OwnerEmail = trimmedPtr(r.OwnerEmail)
	app.PropertyName = strings.TrimSpace(r.PropertyName)

	a := r.Address
	app.DeclaredDistrict = strings.TrimSpace(a.District)
	app.Tehsil = strings.TrimSpace(a.Tehsil)
	app.TehsilOther = trimmedPtr(a.TehsilOther)
	app.Block = trimmedPtr(a.Block)
	app.BlockOther = trimmedPtr(a.BlockOther)
	app.UrbanBody = trimmedPtr(a.UrbanBody)
	app.UrbanBodyOther = trimmedPtr(a.UrbanBodyOther)
	app.Ward = trimmedPtr(a.Ward)
	app.WardOther = trimmedPtr(a.WardOther)
	app.GramPanchayat = trimmedPtr(a.GramPanchayat)
	app.GramPanchayatOther = trimmedPtr(a.GramPanchayatOther)
	app.AddressLine = strings.TrimSpace(a.AddressLine)
	app.Pincode = strings.TrimSpace(a.Pincode)
	app.LocationType = a.LocationType

	fees.ApplyRooms(app, r.Rooms)
	app.SelectedCategory = r.Category
	app.ValidityYears = r.ValidityYears
	if app.ValidityYears == 0 {
		app.ValidityYears = 1
	}
	app.IsLegacyRC = r.IsLegacyRC
	app.LegacyCertificateNumber = nil
	if r.IsLegacyRC {
		app.LegacyCertificateNumber = trimmedPtr(r.LegacyCertificateNumber)
	}

	app.ParentApplicationID = nil
	app.ServiceContext = nil
	if link, reason, _ := r.variant(); link != nil {
		parent := link.ParentApplicationID
		app.ParentApplicationID = &parent
		raw, err := json.Marshal(serviceContext{
			CertificateNumber: strings.TrimSpace(link.CertificateNumber),
			Reason:            reason,
		})
		if err != nil {
			return apperrors.Infrastructure("service_context_encode_failed", err)
		}
		app.ServiceContext = datatypes.JSON(raw)
	}
	return nil
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// ValidMobile reports whether s is a 10 digit Indian mobile number.
func ValidMobile(s string) bool {
	return mobilePattern.MatchString(strings.TrimSpace(s))
}

// ValidPincode reports whether s is a 6 digit postal code.
func ValidPincode(s string) bool {
	return pincodePattern.MatchString(strings.TrimSpace(s))
}
