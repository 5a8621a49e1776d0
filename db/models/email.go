package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationStatus string

const (
	NotificationSent   NotificationStatus = "sent"
	NotificationFailed NotificationStatus = "failed"
)

// EmailLog records every notification email the worker attempted.
type EmailLog struct {
	ID            uuid.UUID          `gorm:"type:uuid;primary_key;" json:"id"`
	ApplicationID uuid.UUID          `gorm:"type:uuid;index" json:"application_id"`
	EventID       string             `gorm:"type:varchar(60);not null;index" json:"event_id"`
	Recipient     string             `gorm:"not null" json:"recipient"`
	Subject       string             `json:"subject"`
	Message       string             `gorm:"type:text" json:"message"`
	Status        NotificationStatus `gorm:"type:varchar(10);not null" json:"status"`
	Error         *string            `gorm:"type:text" json:"error,omitempty"`
	SentAt        time.Time          `gorm:"autoCreateTime" json:"sent_at"`
}

func (e *EmailLog) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
