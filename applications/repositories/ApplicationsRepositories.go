package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"homestay-registration-backend/db/models"
	documentRepositories "homestay-registration-backend/documents/repositories"
	userRepositories "homestay-registration-backend/users/repositories"
	"homestay-registration-backend/utils/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApplicationRepository is the gorm-backed storage behind the workflow and
// document services.
type ApplicationRepository interface {
	GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error)
	CreateApplication(ctx context.Context, app *models.Application) error
	UpdateApplication(ctx context.Context, app *models.Application, expected models.ApplicationStatus) error
	TransitionApplication(ctx context.Context, app *models.Application, from models.ApplicationStatus) error
	FindInFlightApplication(ctx context.Context, ownerID, excludeID uuid.UUID) (*models.Application, error)
	NextSequence(ctx context.Context, prefix string) (int, error)
	// ListSubmittedApplications pages through every non-draft application,
	// oldest first.
	ListSubmittedApplications(ctx context.Context, offset, limit int) ([]models.Application, error)

	AppendAction(ctx context.Context, action *models.ApplicationAction) error
	ListActions(ctx context.Context, applicationID uuid.UUID) ([]models.ApplicationAction, error)

	documentRepositories.DocumentRepository
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type applicationRepository struct {
	DB *gorm.DB
	documentRepositories.DocumentRepository
	users userRepositories.UserRepository
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{
		DB:                 db,
		DocumentRepository: documentRepositories.NewDocumentRepository(db),
		users:              userRepositories.NewUserRepository(db),
	}
}

func (r *applicationRepository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.users.GetUser(ctx, id)
}

func (r *applicationRepository) GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	var application models.Application
	if err := r.DB.WithContext(ctx).First(&application, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("application %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch application %s: %w", id, err)
	}
	return &application, nil
}

func (r *applicationRepository) CreateApplication(ctx context.Context, app *models.Application) error {
	if err := r.DB.WithContext(ctx).Omit(clause.Associations).Create(app).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("failed to create application: %w", apperrors.ErrDuplicateKey)
		}
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

func (r *applicationRepository) UpdateApplication(ctx context.Context, app *models.Application, expected models.ApplicationStatus) error {
	return r.guardedSave(ctx, app, expected)
}

func (r *applicationRepository) TransitionApplication(ctx context.Context, app *models.Application, from models.ApplicationStatus) error {
	return r.guardedSave(ctx, app, from)
}

// guardedSave writes every column of app only while the stored status is
// still expected. Zero rows affected means the row is gone or has moved on.
func (r *applicationRepository) guardedSave(ctx context.Context, app *models.Application, expected models.ApplicationStatus) error {
	result := r.DB.WithContext(ctx).
		Model(&models.Application{}).
		Where("id = ? AND status = ?", app.ID, expected).
		Select("*").
		Omit("id", "created_at", "created_by", clause.Associations).
		Updates(app)
	if result.Error != nil {
		if isDuplicateKey(result.Error) {
			return fmt.Errorf("failed to save application %s: %w", app.ID, apperrors.ErrDuplicateKey)
		}
		return fmt.Errorf("failed to save application %s: %w", app.ID, result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	if _, err := r.GetApplication(ctx, app.ID); err != nil {
		return err
	}
	return fmt.Errorf("application %s is no longer %s: %w", app.ID, expected, apperrors.ErrConflict)
}

func (r *applicationRepository) FindInFlightApplication(ctx context.Context, ownerID, excludeID uuid.UUID) (*models.Application, error) {
	var application models.Application
	err := r.DB.WithContext(ctx).
		Where("owner_id = ? AND id <> ?", ownerID, excludeID).
		Where("status IN ?", models.InFlightStatuses()).
		Order("created_at ASC").
		First(&application).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up in-flight application for owner %s: %w", ownerID, err)
	}
	return &application, nil
}

func (r *applicationRepository) ListSubmittedApplications(ctx context.Context, offset, limit int) ([]models.Application, error) {
	var applications []models.Application
	err := r.DB.WithContext(ctx).
		Where("status <> ?", models.StatusDraft).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&applications).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return applications, nil
}

// sequenceColumns hold the numbers issued under a prefix.
var sequenceColumns = []string{"application_number", "certificate_number"}

// NextSequence scans soft-deleted rows too, since their numbers stay taken.
func (r *applicationRepository) NextSequence(ctx context.Context, prefix string) (int, error) {
	highest := 0
	for _, column := range sequenceColumns {
		var n int
		err := r.DB.WithContext(ctx).Unscoped().
			Model(&models.Application{}).
			Select(fmt.Sprintf("COALESCE(MAX(CAST(SUBSTR(%s, %d) AS INTEGER)), 0)", column, len(prefix)+1)).
			Where(column+" LIKE ?", prefix+"%").
			Scan(&n).Error
		if err != nil {
			return 0, fmt.Errorf("failed to read %s sequence for %s: %w", column, prefix, err)
		}
		if n > highest {
			highest = n
		}
	}
	return highest + 1, nil
}

func (r *applicationRepository) AppendAction(ctx context.Context, action *models.ApplicationAction) error {
	if err := r.DB.WithContext(ctx).Create(action).Error; err != nil {
		return fmt.Errorf("failed to append action for application %s: %w", action.ApplicationID, err)
	}
	return nil
}

func (r *applicationRepository) ListActions(ctx context.Context, applicationID uuid.UUID) ([]models.ApplicationAction, error) {
	var actions []models.ApplicationAction
	err := r.DB.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at ASC").
		Find(&actions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list actions for application %s: %w", applicationID, err)
	}
	return actions, nil
}

// isDuplicateKey recognises unique violations whether or not the dialector
// translates them.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
