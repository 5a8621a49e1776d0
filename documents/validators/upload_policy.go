package validators

import "homestay-registration-backend/db/models"

// ClassPolicy is the upload allow-list and size ceilings for one document class.
type ClassPolicy struct {
	AllowedExtensions []string `json:"allowed_extensions"`
	AllowedMimeTypes  []string `json:"allowed_mime_types"`
	MaxFileSizeBytes  int64    `json:"max_file_size_bytes"`
	MaxTotalSizeBytes int64    `json:"max_total_size_bytes"`
}

// UploadPolicy is configured independently for documents and photos.
type UploadPolicy struct {
	Documents ClassPolicy `json:"documents"`
	Photos    ClassPolicy `json:"photos"`
}

// For returns the policy of a document class.
func (p UploadPolicy) For(class models.DocumentClass) (ClassPolicy, bool) {
	switch class {
	case models.ClassDocuments:
		return p.Documents, true
	case models.ClassPhotos:
		return p.Photos, true
	}
	return ClassPolicy{}, false
}

const mb = 1024 * 1024

func DefaultUploadPolicy() UploadPolicy {
	return UploadPolicy{
		Documents: ClassPolicy{
			AllowedExtensions: []string{".pdf", ".jpg", ".jpeg", ".png"},
			AllowedMimeTypes:  []string{"application/pdf", "image/jpeg", "image/png"},
			MaxFileSizeBytes:  5 * mb,
			MaxTotalSizeBytes: 50 * mb,
		},
		Photos: ClassPolicy{
			AllowedExtensions: []string{".jpg", ".jpeg", ".png", ".webp"},
			AllowedMimeTypes:  []string{"image/jpeg", "image/png", "image/webp"},
			MaxFileSizeBytes:  10 * mb,
			MaxTotalSizeBytes: 100 * mb,
		},
	}
}

// ClassFor returns the upload class a document type is checked against.
func ClassFor(docType models.DocumentType) models.DocumentClass {
	if docType == models.DocPropertyPhoto {
		return models.ClassPhotos
	}
	return models.ClassDocuments
}
