package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"homestay-registration-backend/applications/workflow"

	"github.com/hibiken/asynq"
)

const (
	TypeNotificationSend = "notification:send"
	QueueNotifications   = "notifications"

	maxRetry    = 5
	taskTimeout = 30 * time.Second
)

// NotificationPayload is the body of a notification:send task.
type NotificationPayload struct {
	EventID string                       `json:"event_id"`
	Context workflow.NotificationContext `json:"context"`
}

// NewNotificationTask builds the task for one notification intent.
func NewNotificationTask(eventID string, nc workflow.NotificationContext) (*asynq.Task, error) {
	payload, err := json.Marshal(NotificationPayload{EventID: eventID, Context: nc})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification payload: %w", err)
	}
	return asynq.NewTask(TypeNotificationSend, payload,
		asynq.Queue(QueueNotifications),
		asynq.MaxRetry(maxRetry),
		asynq.Timeout(taskTimeout),
	), nil
}
