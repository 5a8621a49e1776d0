package requests

import (
	"strings"
	"time"

	"homestay-registration-backend/db/models"
	"homestay-registration-backend/utils/apperrors"

	"github.com/shopspring/decimal"
)

// ActionPayload is the body of a reviewer or payment action.
type ActionPayload interface {
	Validate() error
}

// NewActionPayload returns an empty payload of the type action expects,
// ready to be decoded into.
func NewActionPayload(action models.WorkflowAction) (ActionPayload, bool) {
	switch action {
	case models.ActionSubmitFinal, models.ActionApplyCorrection, models.ActionStartScrutiny,
		models.ActionStartDTDOReview, models.ActionInitiatePayment:
		return &EmptyRequest{}, true
	case models.ActionForwardToDTDO, models.ActionVerifyLegacy:
		return &RemarksRequest{}, true
	case models.ActionSendBack, models.ActionRevertByDTDO, models.ActionRaiseObjection, models.ActionReject:
		return &ReasonRequest{}, true
	case models.ActionScheduleInspection:
		return &ScheduleInspectionRequest{}, true
	case models.ActionRecordInspectionOutcome:
		return &InspectionOutcomeRequest{}, true
	case models.ActionVerifyForPayment:
		return &VerifyForPaymentRequest{}, true
	case models.ActionMarkPaid:
		return &MarkPaidRequest{}, true
	case models.ActionApprove:
		return &ApproveRequest{}, true
	}
	return nil, false
}

type EmptyRequest struct{}

func (*EmptyRequest) Validate() error { return nil }

// RemarksRequest carries the mandatory scrutiny remarks.
type RemarksRequest struct {
	Remarks string `json:"remarks"`
}

func (r *RemarksRequest) Validate() error {
	r.Remarks = strings.TrimSpace(r.Remarks)
	if r.Remarks == "" {
		return apperrors.Validation("remarks_required", "Scrutiny remarks are required")
	}
	return nil
}

// ReasonRequest carries the reason shown to the owner on send-back,
// revert, objection or rejection.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

func (r *ReasonRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return apperrors.Validation("reason_required", "A reason is required")
	}
	return nil
}

type ScheduleInspectionRequest struct {
	ScheduledAt time.Time `json:"scheduled_at"`
	Officer     string    `json:"officer"`
	Remarks     string    `json:"remarks"`
}

func (r *ScheduleInspectionRequest) Validate() error {
	r.Officer = strings.TrimSpace(r.Officer)
	r.Remarks = strings.TrimSpace(r.Remarks)
	if r.ScheduledAt.IsZero() {
		return apperrors.Validation("inspection_date_required", "An inspection date is required")
	}
	if r.Officer == "" {
		return apperrors.Validation("inspection_officer_required", "Name the officer who will inspect the property")
	}
	return nil
}

type InspectionOutcomeRequest struct {
	Findings            string           `json:"findings"`
	RecommendedCategory *models.Category `json:"recommended_category"`
}

func (r *InspectionOutcomeRequest) Validate() error {
	r.Findings = strings.TrimSpace(r.Findings)
	if r.Findings == "" {
		return apperrors.Validation("findings_required", "Inspection findings are required")
	}
	if r.RecommendedCategory != nil && !r.RecommendedCategory.Valid() {
		return apperrors.Validation("invalid_category", "Recommended category must be silver, gold or diamond")
	}
	return nil
}

type VerifyForPaymentRequest struct {
	Remarks string `json:"remarks"`
}

func (r *VerifyForPaymentRequest) Validate() error {
	r.Remarks = strings.TrimSpace(r.Remarks)
	return nil
}

// MarkPaidRequest is the payment gateway confirmation.
type MarkPaidRequest struct {
	Amount           decimal.Decimal `json:"amount"`
	PaymentReference string          `json:"payment_reference"`
}

func (r *MarkPaidRequest) Validate() error {
	r.PaymentReference = strings.TrimSpace(r.PaymentReference)
	if r.PaymentReference == "" {
		return apperrors.Validation("payment_reference_required", "A payment reference is required")
	}
	if r.Amount.IsNegative() {
		return apperrors.Validation("invalid_payment_amount", "Payment amount cannot be negative")
	}
	return nil
}

// ApproveRequest records an offline payment and approves in one step.
type ApproveRequest struct {
	PaymentReference string `json:"payment_reference"`
	Remarks          string `json:"remarks"`
}

func (r *ApproveRequest) Validate() error {
	r.PaymentReference = strings.TrimSpace(r.PaymentReference)
	r.Remarks = strings.TrimSpace(r.Remarks)
	if r.PaymentReference == "" {
		return apperrors.Validation("payment_reference_required", "Enter the offline payment reference before approving")
	}
	return nil
}
