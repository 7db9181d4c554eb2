package app

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/probo/internal/common"
	"github.com/ternarybob/probo/internal/engines"
	"github.com/ternarybob/probo/internal/handlers"
	"github.com/ternarybob/probo/internal/interfaces"
	"github.com/ternarybob/probo/internal/models"
	"github.com/ternarybob/probo/internal/services/approval"
	"github.com/ternarybob/probo/internal/services/events"
	"github.com/ternarybob/probo/internal/services/jobs"
	"github.com/ternarybob/probo/internal/services/screenshots"
	"github.com/ternarybob/probo/internal/storage/badger"
)

// App wires services, storage and handlers together
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager
	EventBus       interfaces.EventBus
	Approvals      interfaces.ApprovalService
	Screenshots    *screenshots.Store
	JobManager     *jobs.Manager

	FormHandler       *handlers.FormHandler
	JobHandler        *handlers.JobHandler
	ApprovalHandler   *handlers.ApprovalHandler
	ScreenshotHandler *handlers.ScreenshotHandler
	UploadHandler     *handlers.UploadHandler
	StatusHandler     *handlers.StatusHandler
	WSHandler         *handlers.WebSocketHandler

	scheduler *cron.Cron
}

// New initializes the application
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	storageManager, err := badger.NewManager(logger, &config.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	bus := events.NewBus(config.WebSocket.SubscriberBuffer, logger)
	approvals := approval.NewService(bus, logger)

	throttle := common.ParseDuration(config.WebSocket.ScreenshotThrottle, time.Second)
	shots := screenshots.NewStore(throttle, bus, logger)

	engineConfig := engines.ConfigFromCommon(config)
	factory := func(engineType models.EngineType) (interfaces.Engine, error) {
		return engines.New(engineType, engineConfig, logger)
	}

	manager := jobs.NewManager(
		storageManager.JobStorage(),
		bus,
		approvals,
		shots,
		factory,
		config.Jobs.MaxConcurrent,
		logger,
	)

	uploadHandler, err := handlers.NewUploadHandler(&config.Uploads, logger)
	if err != nil {
		storageManager.Close()
		return nil, err
	}

	app := &App{
		Config:            config,
		Logger:            logger,
		StorageManager:    storageManager,
		EventBus:          bus,
		Approvals:         approvals,
		Screenshots:       shots,
		JobManager:        manager,
		FormHandler:       handlers.NewFormHandler(manager, models.EngineType(config.Engine.DefaultEngine), logger),
		JobHandler:        handlers.NewJobHandler(manager, logger),
		ApprovalHandler:   handlers.NewApprovalHandler(approvals, logger),
		ScreenshotHandler: handlers.NewScreenshotHandler(shots, manager, bus, logger),
		UploadHandler:     uploadHandler,
		StatusHandler:     handlers.NewStatusHandler(manager, approvals, logger),
		WSHandler:         handlers.NewWebSocketHandler(bus, logger),
	}

	if err := app.startScheduler(); err != nil {
		storageManager.Close()
		return nil, err
	}

	logger.Info().
		Str("default_engine", config.Engine.DefaultEngine).
		Int("max_concurrent", config.Jobs.MaxConcurrent).
		Msg("Application initialized")

	bus.Publish(events.SystemEvent("Service started", map[string]interface{}{
		"version": common.GetVersion(),
	}))

	return app, nil
}

// startScheduler runs recurring maintenance: screenshot retention sweeps
// and badger value log GC.
func (a *App) startScheduler() error {
	retention := common.ParseDuration(a.Config.Jobs.ScreenshotRetention, 30*time.Minute)
	schedule := a.Config.Jobs.PruneSchedule
	if schedule == "" {
		schedule = "*/5 * * * *"
	}

	a.scheduler = cron.New()

	if _, err := a.scheduler.AddFunc(schedule, func() {
		pruned := a.Screenshots.PruneOlderThan(time.Now().Add(-retention))
		if pruned > 0 {
			a.Logger.Info().Int("pruned", pruned).Msg("Screenshot retention sweep")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule screenshot pruning: %w", err)
	}

	if _, err := a.scheduler.AddFunc("@every 10m", func() {
		if err := a.StorageManager.RunMaintenance(); err != nil {
			a.Logger.Warn().Err(err).Msg("Storage maintenance failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule storage maintenance: %w", err)
	}

	a.scheduler.Start()
	return nil
}

// Close releases application resources
func (a *App) Close() {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.EventBus != nil {
		a.EventBus.Close()
	}
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
	}
	a.Logger.Info().Msg("Application closed")
}
