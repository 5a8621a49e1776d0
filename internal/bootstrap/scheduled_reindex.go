package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	reindexAttempts   = 3
	reindexRetryDelay = 30 * time.Second
)

// ScheduleReindex rebuilds the search index on the cron schedule spec,
// retrying a failed run a few times. The returned scheduler is already
// started; Stop it on shutdown.
func ScheduleReindex(ctx context.Context, spec string, lister ApplicationLister, indexer ApplicationBulkIndexer, logger *zap.Logger) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		logger.Info("Running scheduled search reindex")
		run := func(ctx context.Context) error {
			_, err := IndexBleveData(ctx, lister, indexer, logger)
			return err
		}
		if err := retryReindex(ctx, run, reindexAttempts, reindexRetryDelay, logger); err != nil {
			logger.Error("Scheduled search reindex failed", zap.Int("attempts", reindexAttempts), zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid reindex schedule %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}

func retryReindex(ctx context.Context, run func(context.Context) error, attempts int, delay time.Duration, logger *zap.Logger) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = run(ctx); err == nil {
			return nil
		}
		logger.Warn("Search reindex attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}
