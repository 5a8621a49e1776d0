package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	OwnerRole            Role = "owner"
	DealingAssistantRole Role = "dealing_assistant"
	DTDORole             Role = "dtdo"
	AdminRole            Role = "admin"
	SystemRole           Role = "system"
)

func (r Role) Valid() bool {
	switch r {
	case OwnerRole, DealingAssistantRole, DTDORole, AdminRole, SystemRole:
		return true
	}
	return false
}

// IsReviewer reports whether the role belongs to the departmental review chain.
func (r Role) IsReviewer() bool {
	return r == DealingAssistantRole || r == DTDORole
}

// User represents property owners, departmental staff and system principals.
type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	FullName string    `gorm:"not null" json:"full_name"`
	Email    *string   `gorm:"unique" json:"email"`
	Mobile   string    `gorm:"unique;not null" json:"mobile"`

	Role Role `gorm:"type:varchar(30);not null" json:"role"`
	// District scopes reviewers to one district office; nil means state-wide.
	District *string `gorm:"index" json:"district"`

	Active      bool       `gorm:"not null" json:"active"`
	LastLoginAt *time.Time `json:"last_login_at"`

	// Audit fields
	CreatedBy string         `gorm:"not null" json:"created_by"`
	UpdatedBy *string        `json:"updated_by"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// CoversDistrict reports whether a reviewer's jurisdiction includes district.
// Users without a district are state-wide.
func (u *User) CoversDistrict(district string) bool {
	if u.District == nil || *u.District == "" {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(*u.District), strings.TrimSpace(district))
}
