package services

import (
	"context"
	"sync"
	"time"

	"homestay-registration-backend/applications/workflow"
	"homestay-registration-backend/metrics"
	"homestay-registration-backend/notifications/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const enqueueTimeout = 5 * time.Second

// Enqueuer is the part of *asynq.Client the notifier uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqNotifier queues notification intents as asynq tasks without
// blocking the caller.
type AsynqNotifier struct {
	client  Enqueuer
	metrics *metrics.Metrics
	logger  *zap.Logger
	wg      sync.WaitGroup
}

func NewAsynqNotifier(client Enqueuer, m *metrics.Metrics, logger *zap.Logger) *AsynqNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AsynqNotifier{client: client, metrics: m, logger: logger}
}

var _ workflow.Notifier = (*AsynqNotifier)(nil)

func (n *AsynqNotifier) QueueNotification(eventID string, nc workflow.NotificationContext) {
	task, err := tasks.NewNotificationTask(eventID, nc)
	if err != nil {
		n.fail(eventID, nc, err)
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), enqueueTimeout)
		defer cancel()

		info, err := n.client.EnqueueContext(ctx, task)
		if err != nil {
			n.fail(eventID, nc, err)
			return
		}
		n.logger.Debug("Notification queued",
			zap.String("eventID", eventID),
			zap.String("applicationID", nc.ApplicationID.String()),
			zap.String("taskID", info.ID))
	}()
}

// Wait blocks until every pending enqueue has finished.
func (n *AsynqNotifier) Wait() {
	n.wg.Wait()
}

func (n *AsynqNotifier) fail(eventID string, nc workflow.NotificationContext, err error) {
	n.metrics.IncrementSecondaryFailure(metrics.EffectNotification)
	n.logger.Error("Failed to queue notification",
		zap.String("eventID", eventID),
		zap.String("applicationID", nc.ApplicationID.String()),
		zap.Error(err))
}
