package validators

import (
	"fmt"
	"path/filepath"
	"strings"

	"homestay-registration-backend/db/models"
	"homestay-registration-backend/utils/apperrors"
)

type DocumentValidator struct{}

func NewDocumentValidator() *DocumentValidator {
	return &DocumentValidator{}
}

// ValidateFile checks a single file against the policy of its class.
func (v *DocumentValidator) ValidateFile(doc models.Document, policy UploadPolicy) error {
	if err := v.validateFileName(doc.FileName); err != nil {
		return err
	}

	class, ok := policy.For(doc.DocumentClass)
	if !ok {
		return apperrors.Validation("invalid_document_class", "Unknown document class %q for %s", doc.DocumentClass, doc.FileName)
	}

	if err := v.validateExtension(doc.FileName, class); err != nil {
		return err
	}
	if err := v.validateFileType(doc.FileName, doc.MimeType, class); err != nil {
		return err
	}
	return v.validateFileSize(doc.FileName, doc.FileSize, class)
}

// ValidateUploads checks every file and the aggregate size of each class.
func (v *DocumentValidator) ValidateUploads(docs []models.Document, policy UploadPolicy) error {
	totals := make(map[models.DocumentClass]int64)
	for _, doc := range docs {
		if err := v.ValidateFile(doc, policy); err != nil {
			return err
		}
		totals[doc.DocumentClass] += doc.FileSize
	}

	for _, class := range []models.DocumentClass{models.ClassDocuments, models.ClassPhotos} {
		cp, _ := policy.For(class)
		if cp.MaxTotalSizeBytes > 0 && totals[class] > cp.MaxTotalSizeBytes {
			return apperrors.Validation("upload_total_too_large",
				"Total size of %s (%s) exceeds the %s limit", class, humanSize(totals[class]), humanSize(cp.MaxTotalSizeBytes))
		}
	}
	return nil
}

// validateFileName ensures the filename is valid
func (v *DocumentValidator) validateFileName(fileName string) error {
	if strings.TrimSpace(fileName) == "" {
		return apperrors.Validation("invalid_file_name", "File name cannot be empty")
	}
	if len(fileName) > 255 {
		return apperrors.Validation("invalid_file_name", "File name cannot exceed 255 characters")
	}
	return nil
}

func (v *DocumentValidator) validateExtension(fileName string, class ClassPolicy) error {
	ext := strings.ToLower(filepath.Ext(fileName))
	for _, allowed := range class.AllowedExtensions {
		if ext == strings.ToLower(allowed) {
			return nil
		}
	}
	return apperrors.Validation("unsupported_file_extension",
		"%s has an unsupported extension; allowed: %s", fileName, strings.Join(class.AllowedExtensions, ", "))
}

// validateFileType ensures the file type is supported
func (v *DocumentValidator) validateFileType(fileName, mimeType string, class ClassPolicy) error {
	clean := strings.TrimSpace(strings.ToLower(mimeType))
	for _, allowed := range class.AllowedMimeTypes {
		if clean == strings.ToLower(allowed) {
			return nil
		}
	}
	return apperrors.Validation("unsupported_file_type",
		"%s has unsupported file type %q; allowed: %s", fileName, mimeType, strings.Join(class.AllowedMimeTypes, ", "))
}

func (v *DocumentValidator) validateFileSize(fileName string, size int64, class ClassPolicy) error {
	if size <= 0 {
		return apperrors.Validation("invalid_file_size", "%s is empty", fileName)
	}
	if class.MaxFileSizeBytes > 0 && size > class.MaxFileSizeBytes {
		return apperrors.Validation("file_too_large",
			"%s is %s which exceeds the %s per-file limit", fileName, humanSize(size), humanSize(class.MaxFileSizeBytes))
	}
	return nil
}

func humanSize(n int64) string {
	switch {
	case n >= mb:
		return fmt.Sprintf("%.1f MB", float64(n)/mb)
	case n >= 1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	}
	return fmt.Sprintf("%d bytes", n)
}
