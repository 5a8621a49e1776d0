package workflow

import (
	"context"

	"homestay-registration-backend/applications/fees"
	"homestay-registration-backend/applications/requests"
	"homestay-registration-backend/db/models"
	documentServices "homestay-registration-backend/documents/services"
	"homestay-registration-backend/utils/apperrors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func (s *Service) StartScrutiny(ctx context.Context, id uuid.UUID, actor models.Actor) (*models.Application, error) {
	return s.Perform(ctx, id, actor, models.ActionStartScrutiny, &requests.EmptyRequest{})
}

func (s *Service) ForwardToDTDO(ctx context.Context, id uuid.UUID, actor models.Actor, remarks string) (*models.Application, error) {
	return s.Perform(ctx, id, actor, models.ActionForwardToDTDO, &requests.RemarksRequest{Remarks: remarks})
}

func (s *Service) SendBack(ctx context.Context, id uuid.UUID, actor models.Actor, reason string) (*models.Application, error) {
	return s.Perform(ctx, id, actor, models.ActionSendBack, &requests.ReasonRequest{Reason: reason})
}

func (s *Service) VerifyLegacy(ctx context.Context, id uuid.UUID, actor models.Actor, remarks string) (*models.Application, error) {
	return s.Perform(ctx, id, actor, models.ActionVerifyLegacy, &requests.RemarksRequest{Remarks: remarks})
}

func (s *Service) StartDTDOReview(ctx context.Context, id uuid.UUID, actor models.Actor) (*models.Application, error) {
	return s.Perform(ctx, id, actor, models.ActionStartDTDOReview, &requests.EmptyRequest{})
}

func (s *Service) ScheduleInspection(ctx context.Context, id uuid.UUID, actor models.Actor, req requests.ScheduleInspectionRequest) (*models.Application, error) {
	return s.Perform(ctx, id, actor, models.ActionScheduleInspection, &req)
}

func (s *Service) RecordInspectionOutcome(ctx context.Context, id uuid.UUID, actor models.Actor, req requests.InspectionOutcomeRequest) (*models.Application, error) {
	return s.Perform(ctx, id, actor, models.ActionRecordInspectionOutcome, &req)
}

func (s *Service) VerifyForPayment(ctx context.Context, id uuid.UUID, actor models.Actor, remarks string) (*models.Application, error) {
	return s.Perform(ctx, id, actor, models.ActionVerifyForPayment, &requests.VerifyForPaymentRequest{Remarks: remarks})
}

func (s *Service) RevertByDTDO(ctx context.Context, id uuid.UUID, actor models.Actor, reason string) (*models.Application, error) {
	return s.Perform(ctx, id, actor, models.ActionRevertByDTDO, &requests.ReasonRequest{Reason: reason})
}

func (s *Service) RaiseObjection(ctx context.Context, id uuid.UUID, actor models.Actor, reason string) (*models.Application, error) {
	return s.Perform(ctx, id, actor, models.ActionRaiseObjection, &requests.ReasonRequest{Reason: reason})
}

func (s *Service) InitiatePayment(ctx context.Context, id uuid.UUID, actor models.Actor) (*models.Application, error) {
	return s.Perform(ctx, id, actor, models.ActionInitiatePayment, &requests.EmptyRequest{})
}

func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID, actor models.Actor, amount decimal.Decimal, reference string) (*models.Application, error) {
	return s.Perform(ctx, id, actor, models.ActionMarkPaid, &requests.MarkPaidRequest{Amount: amount, PaymentReference: reference})
}

func (s *Service) Approve(ctx context.Context, id uuid.UUID, actor models.Actor, reference, remarks string) (*models.Application, error) {
	return s.Perform(ctx, id, actor, models.ActionApprove, &requests.ApproveRequest{PaymentReference: reference, Remarks: remarks})
}

func (s *Service) Reject(ctx context.Context, id uuid.UUID, actor models.Actor, reason string) (*models.Application, error) {
	return s.Perform(ctx, id, actor, models.ActionReject, &requests.ReasonRequest{Reason: reason})
}

func remarksOf(tc *transitionContext) (*requests.RemarksRequest, error) {
	p, ok := tc.payload.(*requests.RemarksRequest)
	if !ok {
		return nil, payloadMismatch(tc)
	}
	return p, nil
}

func reasonOf(tc *transitionContext) (*requests.ReasonRequest, error) {
	p, ok := tc.payload.(*requests.ReasonRequest)
	if !ok {
		return nil, payloadMismatch(tc)
	}
	return p, nil
}

func payloadMismatch(tc *transitionContext) error {
	return apperrors.Validation("invalid_payload", "The request body does not match action %s", tc.action)
}

// requireGate loads the documents and runs the completeness gate.
func (s *Service) requireGate(ctx context.Context, app *models.Application) error {
	docs, err := s.store.ListDocuments(ctx, app.ID)
	if err != nil {
		return apperrors.Infrastructure("document_lookup_failed", err)
	}
	return documentServices.EvaluateGate(docs).Err()
}

func prepareForward(ctx context.Context, s *Service, tc *transitionContext) error {
	p, err := remarksOf(tc)
	if err != nil {
		return err
	}
	if tc.from == models.StatusLegacyRCReview {
		allowed, err := s.settings.LegacyForwardAllowed(ctx)
		if err != nil {
			return apperrors.Infrastructure("settings_unavailable", err)
		}
		if !allowed {
			return apperrors.Conflict("legacy_forward_disabled",
				"Legacy RC applications are not forwarded to the DTDO; close them with verify_legacy").
				WithDetail("current_status", tc.from)
		}
	}
	if err := s.requireGate(ctx, tc.app); err != nil {
		return err
	}
	tc.app.ScrutinyRemarks = &p.Remarks
	tc.app.ForwardedAt = &tc.now
	tc.feedback = p.Remarks
	return nil
}

func prepareSendBack(ctx context.Context, s *Service, tc *transitionContext) error {
	p, err := reasonOf(tc)
	if err != nil {
		return err
	}
	enabled, err := s.settings.DASendBackEnabled(ctx)
	if err != nil {
		return apperrors.Infrastructure("settings_unavailable", err)
	}
	if !enabled {
		return apperrors.Conflict("send_back_disabled",
			"Sending applications back for corrections is switched off; forward or reject instead").
			WithDetail("current_status", tc.from)
	}
	revert(tc, p.Reason)
	return nil
}

func prepareRevert(_ context.Context, _ *Service, tc *transitionContext) error {
	p, err := reasonOf(tc)
	if err != nil {
		return err
	}
	revert(tc, p.Reason)
	return nil
}

// prepareVerifyLegacy closes a legacy RC application at DA level. The
// legacy forward flag only governs forward_to_dtdo and is not read here.
func prepareVerifyLegacy(ctx context.Context, s *Service, tc *transitionContext) error {
	p, err := remarksOf(tc)
	if err != nil {
		return err
	}
	if !tc.app.IsLegacyRC {
		return apperrors.Validation("not_legacy_application", "Application %s is not a legacy RC application", tc.app.ID)
	}
	if err := s.requireGate(ctx, tc.app); err != nil {
		return err
	}
	tc.app.ScrutinyRemarks = &p.Remarks
	tc.feedback = p.Remarks
	stampApproval(tc)
	return nil
}

func prepareScheduleInspection(_ context.Context, _ *Service, tc *transitionContext) error {
	p, ok := tc.payload.(*requests.ScheduleInspectionRequest)
	if !ok {
		return payloadMismatch(tc)
	}
	if !p.ScheduledAt.After(tc.now) {
		return apperrors.Validation("inspection_date_in_past",
			"Inspection date %s must be in the future", p.ScheduledAt.Format("2006-01-02 15:04"))
	}
	at := p.ScheduledAt
	officer := p.Officer
	tc.app.InspectionScheduledAt = &at
	tc.app.InspectionOfficer = &officer
	if p.Remarks != "" {
		remarks := p.Remarks
		tc.app.DTDORemarks = &remarks
	}
	tc.feedback = "Inspection by " + officer + " on " + at.Format("2006-01-02")
	return nil
}

// prepareInspectionOutcome records the inspection. Without an explicit
// recommendation the category fitting the declared tariff is suggested.
func prepareInspectionOutcome(ctx context.Context, s *Service, tc *transitionContext) error {
	p, ok := tc.payload.(*requests.InspectionOutcomeRequest)
	if !ok {
		return payloadMismatch(tc)
	}
	findings := p.Findings
	tc.app.InspectionFindings = &findings
	tc.app.InspectionCompletedAt = &tc.now
	tc.app.RecommendedCategory = p.RecommendedCategory
	if tc.app.RecommendedCategory == nil {
		bands, err := s.settings.CategoryRateBands(ctx)
		if err != nil {
			return apperrors.Infrastructure("settings_unavailable", err)
		}
		tc.app.RecommendedCategory = fees.RecommendCategory(fees.RoomsOf(tc.app), bands)
	}
	tc.feedback = findings
	return nil
}

func prepareVerifyForPayment(_ context.Context, _ *Service, tc *transitionContext) error {
	p, ok := tc.payload.(*requests.VerifyForPaymentRequest)
	if !ok {
		return payloadMismatch(tc)
	}
	if p.Remarks != "" {
		remarks := p.Remarks
		tc.app.DTDORemarks = &remarks
		tc.feedback = remarks
	}
	tc.app.VerifiedForPaymentAt = &tc.now
	return nil
}

func prepareMarkPaid(_ context.Context, _ *Service, tc *transitionContext) error {
	p, ok := tc.payload.(*requests.MarkPaidRequest)
	if !ok {
		return payloadMismatch(tc)
	}
	due := tc.app.TotalFee.Round(2)
	if !p.Amount.Round(2).Equal(due) {
		return apperrors.Validation("payment_amount_mismatch",
			"Payment amount ₹%s does not match the fee due ₹%s", p.Amount.StringFixed(2), due.StringFixed(2)).
			WithDetail("amount_due", due.StringFixed(2))
	}
	reference := p.PaymentReference
	amount := p.Amount.Round(2)
	tc.app.PaymentReference = &reference
	tc.app.AmountPaid = &amount
	tc.app.PaidAt = &tc.now
	tc.feedback = "Paid online, reference " + reference
	stampApproval(tc)
	return nil
}

func prepareOfflineApproval(_ context.Context, _ *Service, tc *transitionContext) error {
	p, ok := tc.payload.(*requests.ApproveRequest)
	if !ok {
		return payloadMismatch(tc)
	}
	reference := p.PaymentReference
	amount := tc.app.TotalFee.Round(2)
	tc.app.PaymentReference = &reference
	tc.app.AmountPaid = &amount
	tc.app.PaidAt = &tc.now
	tc.feedback = "Paid offline, reference " + reference
	if p.Remarks != "" {
		remarks := p.Remarks
		tc.app.DTDORemarks = &remarks
		tc.feedback += ": " + remarks
	}
	stampApproval(tc)
	return nil
}

func prepareReject(_ context.Context, _ *Service, tc *transitionContext) error {
	p, err := reasonOf(tc)
	if err != nil {
		return err
	}
	reason := p.Reason
	tc.app.RejectionReason = &reason
	tc.app.RejectedAt = &tc.now
	tc.feedback = reason
	return nil
}

// stampApproval records approval and, except for cancellations, issues a
// certificate valid for the application's validity term.
func stampApproval(tc *transitionContext) {
	app := tc.app
	app.ApprovedAt = &tc.now
	if app.Kind == models.KindCancelCertificate {
		return
	}
	expires := tc.now.AddDate(app.ValidityYears, 0, 0)
	app.CertificateIssuedAt = &tc.now
	app.CertificateExpiresAt = &expires
	tc.issueCertificate = true
}
