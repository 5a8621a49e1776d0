package repositories

import (
	"context"
	"fmt"

	"homestay-registration-backend/db/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EmailLogRepository interface {
	CreateEmailLog(ctx context.Context, log *models.EmailLog) error
	ListEmailLogs(ctx context.Context, applicationID uuid.UUID) ([]models.EmailLog, error)
}

type emailLogRepository struct {
	db *gorm.DB
}

func NewEmailLogRepository(db *gorm.DB) EmailLogRepository {
	return &emailLogRepository{db: db}
}

func (r *emailLogRepository) CreateEmailLog(ctx context.Context, log *models.EmailLog) error {
	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		return fmt.Errorf("failed to save email log: %w", err)
	}
	return nil
}

func (r *emailLogRepository) ListEmailLogs(ctx context.Context, applicationID uuid.UUID) ([]models.EmailLog, error) {
	var logs []models.EmailLog
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("sent_at ASC").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list email logs for application %s: %w", applicationID, err)
	}
	return logs, nil
}
