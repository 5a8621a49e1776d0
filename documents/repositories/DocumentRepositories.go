package repositories

import (
	"context"
	"errors"
	"fmt"

	"homestay-registration-backend/db/models"
	"homestay-registration-backend/utils/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentRepository interface {
	ListDocuments(ctx context.Context, applicationID uuid.UUID) ([]models.Document, error)
	GetDocument(ctx context.Context, applicationID, documentID uuid.UUID) (*models.Document, error)
	CreateDocument(ctx context.Context, document *models.Document) error
	UpdateDocument(ctx context.Context, document *models.Document, expectedStatus models.ApplicationStatus) error
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) ListDocuments(ctx context.Context, applicationID uuid.UUID) ([]models.Document, error) {
	var documents []models.Document
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("sort_order ASC, created_at ASC").
		Find(&documents).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list documents for application %s: %w", applicationID, err)
	}
	return documents, nil
}

func (r *documentRepository) GetDocument(ctx context.Context, applicationID, documentID uuid.UUID) (*models.Document, error) {
	var document models.Document
	err := r.db.WithContext(ctx).
		Where("id = ? AND application_id = ?", documentID, applicationID).
		First(&document).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("document %s: %w", documentID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch document %s: %w", documentID, err)
	}
	return &document, nil
}

func (r *documentRepository) CreateDocument(ctx context.Context, document *models.Document) error {
	if err := r.db.WithContext(ctx).Create(document).Error; err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

// UpdateDocument writes the file and verification columns only while the
// parent application still has expectedStatus.
func (r *documentRepository) UpdateDocument(ctx context.Context, document *models.Document, expectedStatus models.ApplicationStatus) error {
	updates := map[string]interface{}{
		"document_type":       document.DocumentType,
		"document_class":      document.DocumentClass,
		"file_name":           document.FileName,
		"file_path":           document.FilePath,
		"file_size":           document.FileSize,
		"mime_type":           document.MimeType,
		"verification_status": document.VerificationStatus,
		"verification_notes":  document.VerificationNotes,
		"verified_by":         document.VerifiedBy,
		"verified_at":         document.VerifiedAt,
	}

	result := r.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ? AND application_id = ?", document.ID, document.ApplicationID).
		Where("EXISTS (SELECT 1 FROM applications WHERE applications.id = ? AND applications.status = ? AND applications.deleted_at IS NULL)",
			document.ApplicationID, expectedStatus).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update document %s: %w", document.ID, result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	if _, err := r.GetDocument(ctx, document.ApplicationID, document.ID); err != nil {
		return err
	}
	return fmt.Errorf("application %s is no longer %s: %w", document.ApplicationID, expectedStatus, apperrors.ErrConflict)
}
