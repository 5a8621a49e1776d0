package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ApplicationStatus defines the current state of an application.
type ApplicationStatus string

const (
	StatusDraft                  ApplicationStatus = "draft"
	StatusSubmitted              ApplicationStatus = "submitted"
	StatusUnderScrutiny          ApplicationStatus = "under_scrutiny"
	StatusLegacyRCReview         ApplicationStatus = "legacy_rc_review"
	StatusForwardedToDTDO        ApplicationStatus = "forwarded_to_dtdo"
	StatusDTDOReview             ApplicationStatus = "dtdo_review"
	StatusInspectionScheduled    ApplicationStatus = "inspection_scheduled"
	StatusInspectionUnderReview  ApplicationStatus = "inspection_under_review"
	StatusVerifiedForPayment     ApplicationStatus = "verified_for_payment"
	StatusPaymentPending         ApplicationStatus = "payment_pending"
	StatusRevertedByDTDO         ApplicationStatus = "reverted_by_dtdo"
	StatusObjectionRaised        ApplicationStatus = "objection_raised"
	StatusSentBackForCorrections ApplicationStatus = "sent_back_for_corrections"
	StatusRevertedToApplicant    ApplicationStatus = "reverted_to_applicant"
	StatusApproved               ApplicationStatus = "approved"
	StatusRejected               ApplicationStatus = "rejected"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []ApplicationStatus{
	StatusDraft,
	StatusSubmitted,
	StatusUnderScrutiny,
	StatusLegacyRCReview,
	StatusForwardedToDTDO,
	StatusDTDOReview,
	StatusInspectionScheduled,
	StatusInspectionUnderReview,
	StatusVerifiedForPayment,
	StatusPaymentPending,
	StatusRevertedByDTDO,
	StatusObjectionRaised,
	StatusSentBackForCorrections,
	StatusRevertedToApplicant,
	StatusApproved,
	StatusRejected,
}

// IsTerminal reports whether no further transition can leave the status.
func (s ApplicationStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// IsCorrection reports whether the application is back with the owner for edits.
func (s ApplicationStatus) IsCorrection() bool {
	switch s {
	case StatusSentBackForCorrections, StatusRevertedToApplicant, StatusRevertedByDTDO, StatusObjectionRaised:
		return true
	}
	return false
}

// IsOwnerEditable reports whether the owner may change the application payload.
func (s ApplicationStatus) IsOwnerEditable() bool {
	return s == StatusDraft || s.IsCorrection()
}

// IsInFlight reports whether the application occupies the owner's single
// non-draft slot.
func (s ApplicationStatus) IsInFlight() bool {
	return s != StatusDraft && !s.IsTerminal()
}

// InFlightStatuses lists the statuses for which IsInFlight holds.
func InFlightStatuses() []ApplicationStatus {
	var out []ApplicationStatus
	for _, s := range AllStatuses {
		if s.IsInFlight() {
			out = append(out, s)
		}
	}
	return out
}

// ApplicationStage is the coarse phase shown to users.
type ApplicationStage string

const (
	StageOwner          ApplicationStage = "owner"
	StageScrutiny       ApplicationStage = "scrutiny"
	StageDistrictReview ApplicationStage = "district_review"
	StageInspection     ApplicationStage = "inspection"
	StagePayment        ApplicationStage = "payment"
	StageCompleted      ApplicationStage = "completed"
)

// StageFor derives the stage from a status.
func StageFor(s ApplicationStatus) ApplicationStage {
	switch s {
	case StatusSubmitted, StatusUnderScrutiny, StatusLegacyRCReview:
		return StageScrutiny
	case StatusForwardedToDTDO, StatusDTDOReview:
		return StageDistrictReview
	case StatusInspectionScheduled, StatusInspectionUnderReview:
		return StageInspection
	case StatusVerifiedForPayment, StatusPaymentPending:
		return StagePayment
	case StatusApproved, StatusRejected:
		return StageCompleted
	}
	return StageOwner
}

// ApplicationKind is fixed at creation and decides the mandatory field set.
type ApplicationKind string

const (
	KindNewRegistration   ApplicationKind = "new_registration"
	KindRenewal           ApplicationKind = "renewal"
	KindAddRooms          ApplicationKind = "add_rooms"
	KindDeleteRooms       ApplicationKind = "delete_rooms"
	KindCancelCertificate ApplicationKind = "cancel_certificate"
)

func (k ApplicationKind) Valid() bool {
	switch k {
	case KindNewRegistration, KindRenewal, KindAddRooms, KindDeleteRooms, KindCancelCertificate:
		return true
	}
	return false
}

// RequiresParent reports whether the kind operates on an existing certificate.
func (k ApplicationKind) RequiresParent() bool {
	return k != KindNewRegistration
}

// Category is the tariff tier of the property.
type Category string

const (
	CategorySilver  Category = "silver"
	CategoryGold    Category = "gold"
	CategoryDiamond Category = "diamond"
)

// Categories lists categories from lowest to highest tier.
var Categories = []Category{CategorySilver, CategoryGold, CategoryDiamond}

func (c Category) Valid() bool {
	return c == CategorySilver || c == CategoryGold || c == CategoryDiamond
}

// LocationType selects the column of the base fee matrix.
type LocationType string

const (
	LocationMunicipalCorporation LocationType = "mc"
	LocationTCP                  LocationType = "tcp"
	LocationGramPanchayat        LocationType = "gp"
)

func (l LocationType) Valid() bool {
	return l == LocationMunicipalCorporation || l == LocationTCP || l == LocationGramPanchayat
}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale || g == GenderOther
}

// Application is the homestay registration record.
type Application struct {
	ID                uuid.UUID         `gorm:"type:uuid;primary_key;" json:"id"`
	ApplicationNumber *string           `gorm:"uniqueIndex" json:"application_number"`
	Kind              ApplicationKind   `gorm:"type:varchar(30);not null;index" json:"application_kind"`
	Status            ApplicationStatus `gorm:"type:varchar(40);not null;default:'draft';index" json:"status"`
	CurrentStage      ApplicationStage  `gorm:"type:varchar(30);not null;default:'owner'" json:"current_stage"`

	CorrectionSubmissionCount int `gorm:"not null;default:0" json:"correction_submission_count"`

	// Legacy RC onboarding
	IsLegacyRC              bool    `gorm:"default:false" json:"is_legacy_rc"`
	LegacyCertificateNumber *string `json:"legacy_certificate_number"`

	// Owner
	OwnerID     uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	OwnerName   string    `gorm:"not null" json:"owner_name"`
	OwnerGender Gender    `gorm:"type:varchar(10)" json:"owner_gender"`
	OwnerMobile string    `json:"owner_mobile"`
	OwnerEmail  *string   `json:"owner_email"`

	PropertyName string `json:"property_name"`

	// Address (LGD hierarchy with free-text overrides)
	DeclaredDistrict   string       `json:"declared_district"`
	District           string       `gorm:"index" json:"district"`
	Tehsil             string       `json:"tehsil"`
	TehsilOther        *string      `json:"tehsil_other"`
	Block              *string      `json:"block"`
	BlockOther         *string      `json:"block_other"`
	UrbanBody          *string      `json:"urban_body"`
	UrbanBodyOther     *string      `json:"urban_body_other"`
	Ward               *string      `json:"ward"`
	WardOther          *string      `json:"ward_other"`
	GramPanchayat      *string      `json:"gram_panchayat"`
	GramPanchayatOther *string      `json:"gram_panchayat_other"`
	AddressLine        string       `json:"address_line"`
	Pincode            string       `gorm:"type:varchar(6)" json:"pincode"`
	LocationType       LocationType `gorm:"type:varchar(5)" json:"location_type"`

	// Room configuration
	SingleBedRooms    int              `gorm:"not null;default:0" json:"single_bed_rooms"`
	SingleBedBeds     int              `gorm:"not null;default:0" json:"single_bed_beds"`
	SingleBedRoomRate *decimal.Decimal `gorm:"type:decimal(12,2)" json:"single_bed_room_rate"`
	DoubleBedRooms    int              `gorm:"not null;default:0" json:"double_bed_rooms"`
	DoubleBedBeds     int              `gorm:"not null;default:0" json:"double_bed_beds"`
	DoubleBedRoomRate *decimal.Decimal `gorm:"type:decimal(12,2)" json:"double_bed_room_rate"`
	FamilySuites      int              `gorm:"not null;default:0" json:"family_suites"`
	FamilySuiteBeds   int              `gorm:"not null;default:0" json:"family_suite_beds"`
	FamilySuiteRate   *decimal.Decimal `gorm:"type:decimal(12,2)" json:"family_suite_rate"`
	AttachedWashrooms int              `gorm:"not null;default:0" json:"attached_washrooms"`
	TotalRooms        int              `gorm:"not null;default:0" json:"total_rooms"`
	TotalBeds         int              `gorm:"not null;default:0" json:"total_beds"`
	HighestRoomRate   decimal.Decimal  `gorm:"type:decimal(12,2);default:0" json:"highest_room_rate"`

	// Category
	SelectedCategory    Category  `gorm:"type:varchar(10)" json:"selected_category"`
	Category            Category  `gorm:"type:varchar(10)" json:"category"`
	RecommendedCategory *Category `gorm:"type:varchar(10)" json:"recommended_category"`

	// Fee breakdown, persisted as the contract the owner pays against
	ValidityYears              int             `gorm:"not null;default:1" json:"validity_years"`
	IsSpecialSubdivision       bool            `gorm:"default:false" json:"is_special_subdivision"`
	BaseFee                    decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"base_fee"`
	TotalBeforeDiscounts       decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"total_before_discounts"`
	ValidityDiscount           decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"validity_discount"`
	FemaleOwnerDiscount        decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"female_owner_discount"`
	SpecialSubdivisionDiscount decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"special_subdivision_discount"`
	TotalDiscount              decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"total_discount"`
	TotalFee                   decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"total_fee"`
	FeeConfigurationError      bool            `gorm:"default:false" json:"fee_configuration_error"`

	// Review
	ScrutinyRemarks        *string    `gorm:"type:text" json:"scrutiny_remarks"`
	ClarificationRequested *string    `gorm:"type:text" json:"clarification_requested"`
	SendBackReason         *string    `gorm:"type:text" json:"send_back_reason"`
	DTDORemarks            *string    `gorm:"type:text" json:"dtdo_remarks"`
	InspectionScheduledAt  *time.Time `json:"inspection_scheduled_at"`
	InspectionOfficer      *string    `json:"inspection_officer"`
	InspectionFindings     *string    `gorm:"type:text" json:"inspection_findings"`
	RejectionReason        *string    `gorm:"type:text" json:"rejection_reason"`

	// Lifecycle stamps
	FirstSubmittedAt      *time.Time `json:"first_submitted_at"`
	SubmittedAt           *time.Time `json:"submitted_at"`
	ForwardedAt           *time.Time `json:"forwarded_at"`
	InspectionCompletedAt *time.Time `json:"inspection_completed_at"`
	VerifiedForPaymentAt  *time.Time `json:"verified_for_payment_at"`
	PaidAt                *time.Time `json:"paid_at"`
	ApprovedAt            *time.Time `json:"approved_at"`
	RejectedAt            *time.Time `json:"rejected_at"`

	// Payment and certificate
	PaymentReference     *string          `json:"payment_reference"`
	AmountPaid           *decimal.Decimal `gorm:"type:decimal(12,2)" json:"amount_paid"`
	CertificateNumber    *string          `gorm:"uniqueIndex" json:"certificate_number"`
	CertificateIssuedAt  *time.Time       `json:"certificate_issued_at"`
	CertificateExpiresAt *time.Time       `json:"certificate_expires_at"`

	// Service linkage for renewal, add/delete rooms and cancellation
	ParentApplicationID *uuid.UUID     `gorm:"type:uuid;index" json:"parent_application_id"`
	ServiceContext      datatypes.JSON `json:"service_context,omitempty"`

	// Relationships
	Documents []Document          `gorm:"foreignKey:ApplicationID" json:"documents,omitempty"`
	Actions   []ApplicationAction `gorm:"foreignKey:ApplicationID" json:"actions,omitempty"`

	// Audit fields
	CreatedBy string         `gorm:"not null" json:"created_by"`
	UpdatedBy *string        `json:"updated_by"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (a *Application) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}
