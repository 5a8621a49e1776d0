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

type UserRepository interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByMobile(ctx context.Context, mobile string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// GetUser returns the user regardless of Active; callers decide what an
// inactive account may do.
func (r *userRepository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch user %s: %w", id, err)
	}
	return &user, nil
}

func (r *userRepository) GetUserByMobile(ctx context.Context, mobile string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "mobile = ?", mobile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with mobile %s: %w", mobile, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch user by mobile: %w", err)
	}
	return &user, nil
}

func (r *userRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	// Check if user exists (including soft-deleted)
	var existing models.User
	err := r.db.WithContext(ctx).Unscoped().Where("mobile = ?", user.Mobile).First(&existing).Error
	if err == nil {
		if !existing.DeletedAt.Valid {
			return nil, fmt.Errorf("a user with mobile %s already exists: %w", user.Mobile, apperrors.ErrDuplicateKey)
		}
		// Soft-deleted: restore
		existing.DeletedAt = gorm.DeletedAt{}
		existing.FullName = user.FullName
		existing.Email = user.Email
		existing.Role = user.Role
		existing.District = user.District
		existing.Active = user.Active
		existing.CreatedBy = user.CreatedBy
		if err := r.db.WithContext(ctx).Unscoped().Save(&existing).Error; err != nil {
			return nil, fmt.Errorf("failed to restore soft-deleted user: %w", err)
		}
		return &existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check for existing user: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("failed to create user: %w", apperrors.ErrDuplicateKey)
		}
		return nil, fmt.Errorf("failed to create user in database: %w", err)
	}
	return user, nil
}
