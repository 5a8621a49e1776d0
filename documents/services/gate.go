package services

import (
	"fmt"
	"strings"

	"homestay-registration-backend/db/models"
	"homestay-registration-backend/utils/apperrors"
)

// GateDecision is the outcome of the document completeness gate.
type GateDecision struct {
	Admitted bool
	Pending  []models.Document
	Message  string
}

// EvaluateGate admits only a non-empty document list in which every
// document has been reviewed. Rejected and needs_correction count as reviewed.
func EvaluateGate(docs []models.Document) GateDecision {
	if len(docs) == 0 {
		return GateDecision{Message: "No documents have been uploaded; every application needs reviewed documents before it can be forwarded"}
	}

	var pending []models.Document
	for _, d := range docs {
		if d.VerificationStatus == models.VerificationPending || d.VerificationStatus == "" {
			pending = append(pending, d)
		}
	}
	if len(pending) == 0 {
		return GateDecision{Admitted: true}
	}

	names := make([]string, 0, len(pending))
	for _, d := range pending {
		names = append(names, d.FileName)
	}
	noun, verb := "documents", "are"
	if len(pending) == 1 {
		noun, verb = "document", "is"
	}
	return GateDecision{
		Pending: pending,
		Message: fmt.Sprintf("%d %s %s still pending verification: %s", len(pending), noun, verb, strings.Join(names, ", ")),
	}
}

// Err returns nil for an admitted decision and an incompleteness error otherwise.
func (d GateDecision) Err() error {
	if d.Admitted {
		return nil
	}
	names := make([]string, 0, len(d.Pending))
	for _, doc := range d.Pending {
		names = append(names, doc.FileName)
	}
	return apperrors.Incomplete("documents_pending", "%s", d.Message).
		WithDetail("pending_count", len(d.Pending)).
		WithDetail("pending_documents", names)
}
