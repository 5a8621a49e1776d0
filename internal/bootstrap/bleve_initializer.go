package bootstrap

import (
	"context"
	"fmt"

	"homestay-registration-backend/db/models"

	"go.uber.org/zap"
)

const indexBatchSize = 200

// ApplicationLister pages through submitted applications.
type ApplicationLister interface {
	ListSubmittedApplications(ctx context.Context, offset, limit int) ([]models.Application, error)
}

// ApplicationBulkIndexer writes a batch of applications to the search index.
type ApplicationBulkIndexer interface {
	IndexExistingApplications(apps []models.Application) error
}

// IndexBleveData rebuilds the search index from the database and returns
// how many applications were indexed.
func IndexBleveData(ctx context.Context, lister ApplicationLister, indexer ApplicationBulkIndexer, logger *zap.Logger) (int, error) {
	indexed := 0
	for offset := 0; ; offset += indexBatchSize {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}
		apps, err := lister.ListSubmittedApplications(ctx, offset, indexBatchSize)
		if err != nil {
			return indexed, fmt.Errorf("error fetching applications for indexing: %w", err)
		}
		if err := indexer.IndexExistingApplications(apps); err != nil {
			return indexed, fmt.Errorf("failed to index applications: %w", err)
		}
		indexed += len(apps)
		if len(apps) < indexBatchSize {
			break
		}
	}
	logger.Info("Search index rebuilt", zap.Int("applications", indexed))
	return indexed, nil
}
