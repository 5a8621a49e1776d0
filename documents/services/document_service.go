package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"homestay-registration-backend/db/models"
	"homestay-registration-backend/documents/validators"
	"homestay-registration-backend/utils"
	"homestay-registration-backend/utils/apperrors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentStore is the storage the document service needs.
type DocumentStore interface {
	GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListDocuments(ctx context.Context, applicationID uuid.UUID) ([]models.Document, error)
	GetDocument(ctx context.Context, applicationID, documentID uuid.UUID) (*models.Document, error)
	CreateDocument(ctx context.Context, doc *models.Document) error
	// UpdateDocument writes doc only while its application still has expectedStatus.
	UpdateDocument(ctx context.Context, doc *models.Document, expectedStatus models.ApplicationStatus) error
}

// PolicySource supplies the current upload policy.
type PolicySource interface {
	UploadPolicy(ctx context.Context) (validators.UploadPolicy, error)
}

// verificationWindows lists the statuses in which each reviewer role may
// change document verification records.
var verificationWindows = map[models.Role][]models.ApplicationStatus{
	models.DealingAssistantRole: {models.StatusUnderScrutiny, models.StatusLegacyRCReview},
	models.DTDORole:             {models.StatusDTDOReview},
}

type DocumentService struct {
	Validator *validators.DocumentValidator
	Store     DocumentStore
	Policy    PolicySource
	logger    *zap.Logger
	now       func() time.Time
}

func NewDocumentService(store DocumentStore, policy PolicySource, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		Validator: validators.NewDocumentValidator(),
		Store:     store,
		Policy:    policy,
		logger:    logger,
		now:       utils.Now,
	}
}

// VerificationInput is a reviewer's verdict on one document.
type VerificationInput struct {
	Status models.VerificationStatus `json:"status"`
	Notes  string                    `json:"notes"`
}

// UpdateVerification records a reviewer's verdict. It is only permitted
// while the application is in the reviewer's editable review status.
func (s *DocumentService) UpdateVerification(ctx context.Context, applicationID, documentID uuid.UUID, actor models.Actor, in VerificationInput) (*models.Document, error) {
	windows, ok := verificationWindows[actor.Role]
	if !ok {
		return nil, apperrors.Unauthorized("role_not_permitted", "Role %s may not verify documents", actor.Role)
	}
	if !in.Status.Valid() {
		return nil, apperrors.Validation("invalid_verification_status",
			"Verification status must be one of pending, verified, rejected or needs_correction")
	}
	notes := strings.TrimSpace(in.Notes)
	if (in.Status == models.VerificationRejected || in.Status == models.VerificationNeedsCorrection) && notes == "" {
		return nil, apperrors.Validation("notes_required", "A note is required when marking a document %s", in.Status)
	}

	app, err := s.loadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := s.checkReviewer(ctx, actor, app); err != nil {
		return nil, err
	}
	if !containsStatus(windows, app.Status) {
		return nil, apperrors.Conflict("verification_window_closed",
			"Documents cannot be verified while the application is %s", app.Status).
			WithDetail("current_status", app.Status)
	}

	doc, err := s.Store.GetDocument(ctx, applicationID, documentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("document_not_found", "Document %s not found on application %s", documentID, applicationID)
		}
		return nil, apperrors.Infrastructure("document_lookup_failed", err)
	}

	now := s.now()
	reviewer := actor.UserID
	doc.VerificationStatus = in.Status
	doc.VerifiedBy = &reviewer
	doc.VerifiedAt = &now
	doc.VerificationNotes = nil
	if notes != "" {
		doc.VerificationNotes = &notes
	}
	if in.Status == models.VerificationPending {
		doc.VerifiedBy = nil
		doc.VerifiedAt = nil
	}

	if err := s.Store.UpdateDocument(ctx, doc, app.Status); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.Conflict("verification_window_closed",
				"The application left %s before the verification was saved", app.Status)
		}
		return nil, apperrors.Infrastructure("document_update_failed", err)
	}

	s.logger.Info("Document verification updated",
		zap.String("applicationID", applicationID.String()),
		zap.String("documentID", documentID.String()),
		zap.String("verificationStatus", string(in.Status)),
		zap.String("actorID", actor.UserID.String()))
	return doc, nil
}

// AttachDocumentInput describes an uploaded file. When ReplaceDocumentID is
// set the existing record is overwritten and its verification reset.
type AttachDocumentInput struct {
	DocumentType      models.DocumentType `json:"document_type"`
	FileName          string              `json:"file_name"`
	FilePath          string              `json:"file_path"`
	FileSize          int64               `json:"file_size"`
	MimeType          string              `json:"mime_type"`
	ReplaceDocumentID *uuid.UUID          `json:"replace_document_id,omitempty"`
}

// AttachDocument lets the owner add or replace a file while the application
// is a draft or back with them for corrections.
func (s *DocumentService) AttachDocument(ctx context.Context, applicationID uuid.UUID, actor models.Actor, in AttachDocumentInput) (*models.Document, error) {
	if actor.Role != models.OwnerRole {
		return nil, apperrors.Unauthorized("role_not_permitted", "Only the property owner may upload documents")
	}
	if strings.TrimSpace(string(in.DocumentType)) == "" {
		return nil, apperrors.Validation("missing_document_type", "Document type is required")
	}

	app, err := s.loadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.OwnerID != actor.UserID {
		return nil, apperrors.Unauthorized("not_application_owner", "Only the owner of application %s may upload documents", app.ID)
	}
	if !app.Status.IsOwnerEditable() {
		return nil, apperrors.Conflict("application_not_editable",
			"Documents cannot be uploaded while the application is %s", app.Status).
			WithDetail("current_status", app.Status)
	}

	policy, err := s.Policy.UploadPolicy(ctx)
	if err != nil {
		return nil, apperrors.Infrastructure("settings_unavailable", err)
	}

	existing, err := s.Store.ListDocuments(ctx, applicationID)
	if err != nil {
		return nil, apperrors.Infrastructure("document_lookup_failed", err)
	}

	incoming := models.Document{
		ApplicationID: applicationID,
		DocumentType:  in.DocumentType,
		DocumentClass: validators.ClassFor(in.DocumentType),
		FileName:      strings.TrimSpace(in.FileName),
		FilePath:      in.FilePath,
		FileSize:      in.FileSize,
		MimeType:      in.MimeType,
	}

	var replaced *models.Document
	combined := make([]models.Document, 0, len(existing)+1)
	for i := range existing {
		if in.ReplaceDocumentID != nil && existing[i].ID == *in.ReplaceDocumentID {
			replaced = &existing[i]
			continue
		}
		combined = append(combined, existing[i])
	}
	if in.ReplaceDocumentID != nil && replaced == nil {
		return nil, apperrors.NotFound("document_not_found", "Document %s not found on application %s", *in.ReplaceDocumentID, applicationID)
	}
	combined = append(combined, incoming)

	if err := s.Validator.ValidateUploads(combined, policy); err != nil {
		return nil, err
	}

	if replaced != nil {
		replaced.DocumentType = incoming.DocumentType
		replaced.DocumentClass = incoming.DocumentClass
		replaced.FileName = incoming.FileName
		replaced.FilePath = incoming.FilePath
		replaced.FileSize = incoming.FileSize
		replaced.MimeType = incoming.MimeType
		replaced.VerificationStatus = models.VerificationPending
		replaced.VerificationNotes = nil
		replaced.VerifiedBy = nil
		replaced.VerifiedAt = nil
		if err := s.Store.UpdateDocument(ctx, replaced, app.Status); err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				return nil, apperrors.Conflict("application_not_editable", "The application left %s before the upload was saved", app.Status)
			}
			return nil, apperrors.Infrastructure("document_update_failed", err)
		}
		return replaced, nil
	}

	incoming.SortOrder = len(existing)
	incoming.VerificationStatus = models.VerificationPending
	incoming.UploadedBy = actor.UserID.String()
	if err := s.Store.CreateDocument(ctx, &incoming); err != nil {
		return nil, apperrors.Infrastructure("document_create_failed", err)
	}

	s.logger.Info("Document attached",
		zap.String("applicationID", applicationID.String()),
		zap.String("documentID", incoming.ID.String()),
		zap.String("documentType", string(incoming.DocumentType)))
	return &incoming, nil
}

func (s *DocumentService) loadApplication(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	app, err := s.Store.GetApplication(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("application_not_found", "Application %s not found", id)
		}
		return nil, apperrors.Infrastructure("application_lookup_failed", err)
	}
	return app, nil
}

func (s *DocumentService) checkReviewer(ctx context.Context, actor models.Actor, app *models.Application) error {
	user, err := s.Store.GetUser(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.Unauthorized("unknown_actor", "Reviewer %s is not registered", actor.UserID)
		}
		return apperrors.Infrastructure("user_lookup_failed", err)
	}
	if !user.Active || user.Role != actor.Role {
		return apperrors.Unauthorized("inactive_reviewer", "Reviewer %s is not active as %s", actor.UserID, actor.Role)
	}
	if !user.CoversDistrict(app.District) {
		return apperrors.Unauthorized("outside_jurisdiction",
			"Reviewer %s does not cover district %s", actor.UserID, app.District)
	}
	return nil
}

func containsStatus(list []models.ApplicationStatus, s models.ApplicationStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
