package validators

import (
	"fmt"
	"strings"

	"homestay-registration-backend/db/models"
	"homestay-registration-backend/utils/apperrors"
)

// Requirement is a document type an application must carry at submission.
type Requirement struct {
	Type     models.DocumentType
	Label    string
	MinCount int
}

var (
	requireRevenuePapers     = Requirement{models.DocRevenuePapers, "Revenue papers", 1}
	requireAffidavit         = Requirement{models.DocAffidavitSection29, "Section 29 affidavit", 1}
	requireUndertaking       = Requirement{models.DocUndertakingFormC, "Form-C undertaking", 1}
	requirePhotos            = Requirement{models.DocPropertyPhoto, "property photos", 2}
	requireCertificate       = Requirement{models.DocRegistrationCert, "Existing registration certificate", 1}
	requireCancellation      = Requirement{models.DocCancellationRequest, "Cancellation request", 1}
	requireLegacyCertificate = Requirement{models.DocLegacyCertificate, "Legacy registration certificate", 1}
)

var requiredByKind = map[models.ApplicationKind][]Requirement{
	models.KindNewRegistration:   {requireRevenuePapers, requireAffidavit, requireUndertaking, requirePhotos},
	models.KindRenewal:           {requireCertificate, requirePhotos},
	models.KindAddRooms:          {requireCertificate, requirePhotos},
	models.KindDeleteRooms:       {requireCertificate},
	models.KindCancelCertificate: {requireCertificate, requireCancellation},
}

// RequiredDocuments returns the document set an application of kind must carry.
// Legacy RC onboarding additionally requires the previously issued certificate.
func RequiredDocuments(kind models.ApplicationKind, legacyRC bool) []Requirement {
	reqs := append([]Requirement(nil), requiredByKind[kind]...)
	if legacyRC {
		reqs = append(reqs, requireLegacyCertificate)
	}
	return reqs
}

// ValidateRequiredDocuments fails naming every missing requirement.
func (v *DocumentValidator) ValidateRequiredDocuments(kind models.ApplicationKind, legacyRC bool, docs []models.Document) error {
	counts := make(map[models.DocumentType]int)
	for _, d := range docs {
		counts[d.DocumentType]++
	}

	var missing []string
	for _, req := range RequiredDocuments(kind, legacyRC) {
		have := counts[req.Type]
		if have >= req.MinCount {
			continue
		}
		if req.MinCount == 1 {
			missing = append(missing, req.Label)
		} else {
			missing = append(missing, fmt.Sprintf("at least %d %s (%d uploaded)", req.MinCount, req.Label, have))
		}
	}
	if len(missing) > 0 {
		return apperrors.Validation("missing_required_documents",
			"Missing required documents: %s", strings.Join(missing, "; ")).
			WithDetail("missing", missing)
	}
	return nil
}
