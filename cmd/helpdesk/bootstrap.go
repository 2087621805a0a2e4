package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/spec-kit/parcel-helpdesk/internal/config"
	"github.com/spec-kit/parcel-helpdesk/internal/events"
	"github.com/spec-kit/parcel-helpdesk/internal/notify"
	"github.com/spec-kit/parcel-helpdesk/internal/observability"
	"github.com/spec-kit/parcel-helpdesk/internal/persistence"
	"github.com/spec-kit/parcel-helpdesk/internal/repository"
	"github.com/spec-kit/parcel-helpdesk/internal/service"
	"github.com/spec-kit/parcel-helpdesk/internal/sla"
	"github.com/spec-kit/parcel-helpdesk/internal/storage"
	"github.com/spec-kit/parcel-helpdesk/internal/worker"
)

// deps is everything the commands share.
type deps struct {
	cfg      *config.Config
	logger   *zap.Logger
	postgres *persistence.Postgres
	redis    *persistence.Redis
	store    repository.Store
	metrics  *observability.Metrics
	kafka    *events.KafkaSink
	pool     *worker.NotificationPool
	images   storage.ImageStore

	tickets       *service.TicketService
	notifications *service.NotificationService
	sweep         *service.SweepService
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

func bootstrap(ctx context.Context) (*deps, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	d := &deps{cfg: cfg, logger: logger}

	clock, err := sla.NewSystemClock(cfg.App.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, using UTC", zap.String("timezone", cfg.App.Timezone), zap.Error(err))
	}

	d.postgres, err = persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if d.postgres.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, d.postgres.Pool, logger); err != nil {
			d.postgres.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	d.store = d.postgres.TicketStore()
	d.redis = persistence.NewRedis(ctx, cfg.Redis, logger)
	d.metrics = observability.NewMetrics("helpdesk")
	d.images = storage.New(ctx, cfg.Storage, logger)

	dispatcher := events.NewInMemoryDispatcher(logger)
	d.kafka = events.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	d.kafka.Attach(dispatcher)

	var notifier notify.Notifier = notify.Disabled{Logger: logger}
	if cfg.Line.Enabled() {
		client := notify.NewLineClient(cfg.Line.APIBaseURL, cfg.Line.ChannelAccessToken, &http.Client{})
		notifier = notify.NewRetrying(client, notify.RetryPolicy{
			MaxAttempts:    cfg.Notification.MaxAttempts,
			InitialBackoff: cfg.Notification.InitialBackoff(),
			AttemptTimeout: cfg.Notification.AttemptTimeout(),
		})
	} else {
		logger.Warn("LINE_CHANNEL_ACCESS_TOKEN not provided; notifications are disabled")
	}
	d.pool = worker.NewNotificationPool(cfg.Notification.Workers, cfg.Notification.QueueSize, logger, d.metrics).
		WithJobTimeout(cfg.Notification.JobTimeout())

	d.tickets = service.NewTicketService(service.TicketDependencies{
		Store:         d.store,
		Clock:         clock,
		Images:        d.images,
		MaxImageBytes: cfg.Storage.MaxImageBytes,
		Dispatcher:    dispatcher,
		Logger:        logger,
	})
	d.notifications = service.NewNotificationService(service.NotificationDependencies{
		Dispatcher: dispatcher,
		Store:      d.store,
		Notifier:   notifier,
		Queue:      d.pool,
		Routing:    cfg.Line.Routing(),
		BaseURL:    cfg.App.BaseURL,
		Logger:     logger,
	})
	d.notifications.RegisterHandlers()
	d.sweep = service.NewSweepService(service.SweepDependencies{
		Store:      d.store,
		Clock:      clock,
		Locker:     d.redis.Locker(),
		LockTTL:    cfg.SLA.LockTTL(),
		Dispatcher: dispatcher,
		Metrics:    d.metrics,
		Logger:     logger,
	})
	return d, nil
}

// close drains queued notifications and releases connections.
func (d *deps) close(ctx context.Context) {
	if err := d.pool.Stop(ctx); err != nil {
		d.logger.Warn("notification queue not drained", zap.Error(err))
	}
	if err := d.kafka.Close(); err != nil {
		d.logger.Warn("close kafka writer", zap.Error(err))
	}
	d.redis.Close()
	d.postgres.Close()
	_ = d.logger.Sync()
}
