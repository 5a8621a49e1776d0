package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VerificationStatus is the reviewer's verdict on a single document.
type VerificationStatus string

const (
	VerificationPending         VerificationStatus = "pending"
	VerificationVerified        VerificationStatus = "verified"
	VerificationRejected        VerificationStatus = "rejected"
	VerificationNeedsCorrection VerificationStatus = "needs_correction"
)

func (v VerificationStatus) Valid() bool {
	switch v {
	case VerificationPending, VerificationVerified, VerificationRejected, VerificationNeedsCorrection:
		return true
	}
	return false
}

// DocumentClass picks the upload policy bucket a file is checked against.
type DocumentClass string

const (
	ClassDocuments DocumentClass = "documents"
	ClassPhotos    DocumentClass = "photos"
)

// DocumentType tags what a file is evidence of.
type DocumentType string

const (
	DocRevenuePapers        DocumentType = "revenue_papers"
	DocAffidavitSection29   DocumentType = "affidavit_section_29"
	DocUndertakingFormC     DocumentType = "undertaking_form_c"
	DocPropertyPhoto        DocumentType = "property_photo"
	DocRegistrationCert     DocumentType = "registration_certificate"
	DocFireSafetyCert       DocumentType = "fire_safety_certificate"
	DocCancellationRequest  DocumentType = "cancellation_request"
	DocLegacyCertificate    DocumentType = "legacy_certificate"
	DocOtherSupportingProof DocumentType = "other_supporting_proof"
)

// Document is an uploaded file attached to an application.
type Document struct {
	ID            uuid.UUID     `gorm:"type:uuid;primary_key;" json:"id"`
	ApplicationID uuid.UUID     `gorm:"type:uuid;not null;index" json:"application_id"`
	DocumentType  DocumentType  `gorm:"type:varchar(40);not null" json:"document_type"`
	DocumentClass DocumentClass `gorm:"type:varchar(20);not null" json:"document_class"`
	FileName      string        `gorm:"not null" json:"file_name"`
	FilePath      string        `gorm:"not null" json:"file_path"`
	FileSize      int64         `gorm:"not null" json:"file_size"`
	MimeType      string        `json:"mime_type"`
	SortOrder     int           `gorm:"not null;default:0" json:"sort_order"`

	VerificationStatus VerificationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"verification_status"`
	VerificationNotes  *string            `gorm:"type:text" json:"verification_notes"`
	VerifiedBy         *uuid.UUID         `gorm:"type:uuid" json:"verified_by"`
	VerifiedAt         *time.Time         `json:"verified_at"`

	// Audit fields
	UploadedBy string         `gorm:"not null" json:"uploaded_by"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hooks for UUID generation
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.VerificationStatus == "" {
		d.VerificationStatus = VerificationPending
	}
	return nil
}
