package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"homestay-registration-backend/db/models"
	"homestay-registration-backend/notifications/repositories"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Sender delivers a rendered email.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Handler processes notification:send tasks on the worker.
type Handler struct {
	sender Sender
	logs   repositories.EmailLogRepository
	logger *zap.Logger
}

func NewHandler(sender Sender, logs repositories.EmailLogRepository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{sender: sender, logs: logs, logger: logger}
}

// Register mounts the handler on mux.
func (h *Handler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeNotificationSend, h.ProcessTask)
}

// ProcessTask renders and sends one notification. Payload and template
// errors skip retries; delivery errors are returned so asynq retries them.
func (h *Handler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p NotificationPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("malformed notification payload: %v: %w", err, asynq.SkipRetry)
	}
	nc := p.Context

	subject, body, err := Render(p.EventID, nc)
	if err != nil {
		h.logger.Warn("Dropping notification without a template", zap.String("eventID", p.EventID), zap.Error(err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if nc.OwnerEmail == "" {
		h.logger.Info("Owner has no email address, notification skipped",
			zap.String("eventID", p.EventID),
			zap.String("applicationID", nc.ApplicationID.String()))
		return nil
	}

	entry := &models.EmailLog{
		ApplicationID: nc.ApplicationID,
		EventID:       p.EventID,
		Recipient:     nc.OwnerEmail,
		Subject:       subject,
		Message:       body,
		Status:        models.NotificationSent,
	}
	sendErr := h.sender.Send(ctx, nc.OwnerEmail, subject, body)
	if sendErr != nil {
		msg := sendErr.Error()
		entry.Status = models.NotificationFailed
		entry.Error = &msg
	}
	if err := h.logs.CreateEmailLog(ctx, entry); err != nil {
		h.logger.Error("Failed to record email log",
			zap.String("eventID", p.EventID),
			zap.String("applicationID", nc.ApplicationID.String()),
			zap.Error(err))
	}
	if sendErr != nil {
		h.logger.Error("Failed to send notification email",
			zap.String("eventID", p.EventID),
			zap.String("recipient", nc.OwnerEmail),
			zap.Error(sendErr))
		return fmt.Errorf("failed to send %s notification: %w", p.EventID, sendErr)
	}

	h.logger.Info("Notification email sent",
		zap.String("eventID", p.EventID),
		zap.String("applicationID", nc.ApplicationID.String()),
		zap.String("recipient", nc.OwnerEmail))
	return nil
}
