package workflow

import (
	"context"
)

// revert hands the application back to the owner. Review notes from the
// round being abandoned are cleared; the reason becomes both the owner-facing
// send-back reason and the open clarification request. The correction
// counter is untouched.
func revert(tc *transitionContext, reason string) {
	app := tc.app
	app.ScrutinyRemarks = nil
	app.DTDORemarks = nil
	app.InspectionFindings = nil
	app.ClarificationRequested = &reason
	app.SendBackReason = &reason
	tc.feedback = reason
}

// prepareCorrection resubmits a corrected application. Every first
// submission invariant is re-run against the current settings and the fee
// is recomputed. District, application number and first submission time
// are kept.
func prepareCorrection(ctx context.Context, s *Service, tc *transitionContext) error {
	if err := s.validateSubmission(ctx, tc); err != nil {
		return err
	}
	app := tc.app
	app.ClarificationRequested = nil
	app.SendBackReason = nil
	app.CorrectionSubmissionCount++
	app.SubmittedAt = &tc.now
	return nil
}
