package repositories

import (
	"context"
	"sync"
	"time"

	"homestay-registration-backend/applications/workflow"
	"homestay-registration-backend/db/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ApplicationSource loads the current state of an application.
type ApplicationSource interface {
	GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error)
}

// ApplicationIndexer keeps the search index in step with committed
// transitions. It reindexes in the background and only logs failures.
type ApplicationIndexer struct {
	source ApplicationSource
	repo   BleveRepositoryInterface
	logger *zap.Logger
	wg     sync.WaitGroup
}

func NewApplicationIndexer(source ApplicationSource, repo BleveRepositoryInterface, logger *zap.Logger) *ApplicationIndexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplicationIndexer{source: source, repo: repo, logger: logger}
}

func (ix *ApplicationIndexer) QueueNotification(eventID string, nc workflow.NotificationContext) {
	ix.wg.Add(1)
	go func() {
		defer ix.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app, err := ix.source.GetApplication(ctx, nc.ApplicationID)
		if err != nil {
			ix.logger.Error("Failed to load application for indexing",
				zap.String("eventID", eventID),
				zap.String("applicationID", nc.ApplicationID.String()),
				zap.Error(err))
			return
		}
		if app.Status == models.StatusDraft {
			return
		}
		if err := ix.repo.IndexSingleApplication(*app); err != nil {
			ix.logger.Error("Failed to reindex application",
				zap.String("eventID", eventID),
				zap.String("applicationID", nc.ApplicationID.String()),
				zap.Error(err))
		}
	}()
}

// Wait blocks until every queued reindex has finished.
func (ix *ApplicationIndexer) Wait() {
	ix.wg.Wait()
}
