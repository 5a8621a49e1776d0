package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "homestay-registration-backend/config"
	"homestay-registration-backend/internal/bootstrap"
	"homestay-registration-backend/metrics"
	"homestay-registration-backend/middleware"
	"homestay-registration-backend/seeds"
	"homestay-registration-backend/token"
	"homestay-registration-backend/utils"
	"homestay-registration-backend/websocket"

	// Repositories
	applicationRepositories "homestay-registration-backend/applications/repositories"
	bleveRepositories "homestay-registration-backend/bleve/repositories"
	notificationRepositories "homestay-registration-backend/notifications/repositories"
	settingsRepositories "homestay-registration-backend/settings/repositories"
	userRepositories "homestay-registration-backend/users/repositories"

	// Services
	"homestay-registration-backend/applications/workflow"
	bleveServices "homestay-registration-backend/bleve/services"
	documentServices "homestay-registration-backend/documents/services"
	notificationServices "homestay-registration-backend/notifications/services"
	"homestay-registration-backend/notifications/tasks"
	settingsServices "homestay-registration-backend/settings/services"

	// Routes
	searchControllers "homestay-registration-backend/bleve/controllers"
	applicationRoutes "homestay-registration-backend/applications/routes"
	bleveRoutes "homestay-registration-backend/bleve/routes"
	settingsRoutes "homestay-registration-backend/settings/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	// .env may set LOG_DIR and LOG_LEVEL, so it loads before the logger exists.
	config.LoadEnv()
	logger := config.InitLogger()
	defer func() { _ = logger.Sync() }()

	if err := utils.InitializeDateLocation(); err != nil {
		logger.Fatal("Failed to initialize date location", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database and configs
	db := config.ConfigureDatabase()
	if err := config.SeedInitialUsers(db); err != nil {
		logger.Fatal("Failed to seed initial users", zap.Error(err))
	}
	if err := seeds.SeedDefaultSettings(db); err != nil {
		logger.Fatal("Failed to seed default settings", zap.Error(err))
	}
	redisClient := config.InitRedisServer(ctx)
	defer redisClient.Close()

	// Settings
	settingsRepo := settingsRepositories.NewSettingsRepository(db)
	settingsProvider := settingsServices.NewCachedProvider(
		settingsServices.NewDBProvider(settingsRepo),
		redisClient,
		config.GetEnvDuration("SETTINGS_CACHE_TTL", time.Minute),
		logger,
	)
	settingsProvider.InvalidateAll()
	settingsService := settingsServices.NewSettingsService(settingsRepo, settingsProvider, logger)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	workflowMetrics := metrics.New(registry)

	// Notifications
	asynqClient := asynq.NewClient(config.AsynqRedisOpt())
	defer asynqClient.Close()
	notifier := notificationServices.NewAsynqNotifier(asynqClient, workflowMetrics, logger)

	// ------ WebSocket hub for live status feeds ------
	wsHub := websocket.NewHub()
	go wsHub.Run(ctx)

	applicationRepo := applicationRepositories.NewApplicationRepository(db)

	// ------ Search index ------
	indexingService, err := bleveServices.NewIndexingService(logger, config.GetEnvDefault("BLEVE_INDEX_PATH", "./bleve_data"))
	if err != nil {
		logger.Fatal("Failed to open search index", zap.Error(err))
	}
	defer indexingService.Close()
	bleveRepo := bleveRepositories.NewBleveRepository(indexingService)
	if _, err := bootstrap.IndexBleveData(ctx, applicationRepo, bleveRepo, logger); err != nil {
		logger.Error("Search index rebuild failed", zap.Error(err))
	}
	reindexCron, err := bootstrap.ScheduleReindex(ctx, config.GetEnvDefault("SEARCH_REINDEX_SCHEDULE", "0 1 * * *"), applicationRepo, bleveRepo, logger)
	if err != nil {
		logger.Fatal("Failed to schedule search reindex", zap.Error(err))
	}
	searchIndexer := bleveRepositories.NewApplicationIndexer(applicationRepo, bleveRepo, logger)

	// Workflow and documents
	workflowService := workflow.NewService(applicationRepo, settingsProvider,
		notificationServices.Fanout{notifier, wsHub, searchIndexer}, logger,
		workflow.WithMetrics(workflowMetrics))
	documentService := documentServices.NewDocumentService(applicationRepo, settingsProvider, logger)

	tokenMaker, err := token.NewPasetoMaker(config.GetEnv("TOKEN_SYMMETRIC_KEY"))
	if err != nil {
		logger.Fatal("Cannot create token maker", zap.Error(err))
	}

	// ------ Notification worker ------
	worker := asynq.NewServer(config.AsynqRedisOpt(), asynq.Config{
		Concurrency: config.GetEnvInt("NOTIFICATION_WORKERS", 5),
		Queues:      map[string]int{tasks.QueueNotifications: 1},
		Logger:      logger.Sugar(),
	})
	mux := asynq.NewServeMux()
	tasks.NewHandler(
		notificationServices.NewGomailSenderFromEnv(),
		notificationRepositories.NewEmailLogRepository(db),
		logger,
	).Register(mux)
	if err := worker.Start(mux); err != nil {
		logger.Fatal("Failed to start notification worker", zap.Error(err))
	}

	// ------ HTTP ------
	app := fiber.New()
	middleware.InitCors(app)

	applicationRoutes.ApplicationRouterInit(app, tokenMaker, workflowService, documentService)
	settingsRoutes.SettingsRouterInit(app, tokenMaker, settingsProvider, settingsService)
	websocket.StatusFeedRouterInit(app, tokenMaker, websocket.NewWsHandler(wsHub, workflowService))
	bleveRoutes.InitBleveRoutes(app, tokenMaker,
		searchControllers.NewSearchController(bleveRepo, userRepositories.NewUserRepository(db)))
	app.Get("/metrics", metrics.Handler(registry))

	port := config.GetEnvDefault("PORT", "8080")
	go func() {
		logger.Info("Server starting", zap.String("port", port))
		if err := app.Listen(":" + port); err != nil {
			logger.Error("Server failed", zap.String("port", port), zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("HTTP shutdown failed", zap.Error(err))
	}
	// Let in-flight enqueues finish before the client closes.
	notifier.Wait()
	<-reindexCron.Stop().Done()
	searchIndexer.Wait()
	worker.Shutdown()
	logger.Info("Shutdown complete")
}
