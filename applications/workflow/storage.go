package workflow

import (
	"context"

	"homestay-registration-backend/applications/fees"
	"homestay-registration-backend/db/models"
	"homestay-registration-backend/documents/validators"

	"github.com/google/uuid"
)

// Storage is the persistence the workflow runs on. Lookups of missing rows
// return errors wrapping apperrors.ErrNotFound; guarded writes that lose a
// race return errors wrapping apperrors.ErrConflict; unique number clashes
// return errors wrapping apperrors.ErrDuplicateKey.
type Storage interface {
	GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error)
	CreateApplication(ctx context.Context, app *models.Application) error
	// UpdateApplication saves owner edits while the stored status is still expected.
	UpdateApplication(ctx context.Context, app *models.Application, expected models.ApplicationStatus) error
	// TransitionApplication writes app, including its new status, only if the
	// stored status still equals from.
	TransitionApplication(ctx context.Context, app *models.Application, from models.ApplicationStatus) error
	// FindInFlightApplication returns the owner's in-flight application other
	// than excludeID, or nil when there is none.
	FindInFlightApplication(ctx context.Context, ownerID, excludeID uuid.UUID) (*models.Application, error)
	// NextSequence returns one more than the highest number issued under prefix.
	NextSequence(ctx context.Context, prefix string) (int, error)

	ListDocuments(ctx context.Context, applicationID uuid.UUID) ([]models.Document, error)
	GetDocument(ctx context.Context, applicationID, documentID uuid.UUID) (*models.Document, error)
	CreateDocument(ctx context.Context, doc *models.Document) error
	UpdateDocument(ctx context.Context, doc *models.Document, expectedStatus models.ApplicationStatus) error

	AppendAction(ctx context.Context, action *models.ApplicationAction) error
	ListActions(ctx context.Context, applicationID uuid.UUID) ([]models.ApplicationAction, error)

	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Settings is the business configuration, re-read on every operation.
type Settings interface {
	UploadPolicy(ctx context.Context) (validators.UploadPolicy, error)
	CategoryRateBands(ctx context.Context) (fees.RateBands, error)
	FeeSchedule(ctx context.Context) (fees.FeeSchedule, error)
	RoomRules(ctx context.Context) (fees.RoomRules, error)
	DASendBackEnabled(ctx context.Context) (bool, error)
	LegacyForwardAllowed(ctx context.Context) (bool, error)
}

// NotificationContext is what a notification template can refer to.
type NotificationContext struct {
	ApplicationID     uuid.UUID                `json:"application_id"`
	ApplicationNumber string                   `json:"application_number,omitempty"`
	OwnerID           uuid.UUID                `json:"owner_id"`
	OwnerName         string                   `json:"owner_name"`
	OwnerEmail        string                   `json:"owner_email,omitempty"`
	OwnerMobile       string                   `json:"owner_mobile"`
	PropertyName      string                   `json:"property_name"`
	District          string                   `json:"district"`
	Action            models.WorkflowAction    `json:"action"`
	PreviousStatus    models.ApplicationStatus `json:"previous_status"`
	Status            models.ApplicationStatus `json:"status"`
	Remarks           string                   `json:"remarks,omitempty"`
	TotalFee          string                   `json:"total_fee,omitempty"`
	CertificateNumber string                   `json:"certificate_number,omitempty"`
	ActorRole         models.Role              `json:"actor_role"`
}

// Notifier queues a notification intent. It must not block the caller and
// reports no error; delivery failures are the notifier's to log.
type Notifier interface {
	QueueNotification(eventID string, nc NotificationContext)
}

// EventID names the notification event raised by action.
func EventID(action models.WorkflowAction) string {
	return "application." + string(action)
}
