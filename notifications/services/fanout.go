package services

import (
	"fmt"

	"homestay-registration-backend/applications/workflow"
	"homestay-registration-backend/config"

	"go.uber.org/zap"
)

// Fanout hands every notification to each of its notifiers in order. A
// notifier that panics is logged and skipped; the rest still run.
type Fanout []workflow.Notifier

func (f Fanout) QueueNotification(eventID string, nc workflow.NotificationContext) {
	for _, n := range f {
		notifyOne(n, eventID, nc)
	}
}

func notifyOne(n workflow.Notifier, eventID string, nc workflow.NotificationContext) {
	defer func() {
		if r := recover(); r != nil {
			config.Logger.Error("Notifier panicked",
				zap.String("eventID", eventID),
				zap.String("applicationID", nc.ApplicationID.String()),
				zap.String("notifier", fmt.Sprintf("%T", n)),
				zap.Any("panic", r))
		}
	}()
	n.QueueNotification(eventID, nc)
}
