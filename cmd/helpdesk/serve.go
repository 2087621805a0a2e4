package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/parcel-helpdesk/internal/api/http"
	"github.com/spec-kit/parcel-helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/parcel-helpdesk/internal/storage"
	"github.com/spec-kit/parcel-helpdesk/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the notification workers and the SLA scheduler",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	cfg, logger := d.cfg, d.logger

	// Workers outlive the signal context so the queue can drain on shutdown.
	workerCtx, cancelWorkers := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelWorkers()
	d.pool.Start(workerCtx)

	var scheduler *worker.SweepScheduler
	if cfg.SLA.SchedulerEnabled {
		loc, err := time.LoadLocation(cfg.App.Timezone)
		if err != nil {
			loc = time.UTC
		}
		scheduler, err = worker.NewSweepScheduler(cfg.SLA.SweepSchedule, loc, cfg.SLA.LockTTL(), func(ctx context.Context) error {
			_, err := d.sweep.Run(ctx)
			return err
		}, logger)
		if err != nil {
			d.close(context.Background())
			return err
		}
		scheduler.Start()
		logger.Info("sla scheduler started", zap.String("schedule", cfg.SLA.SweepSchedule), zap.Time("next_run", scheduler.Next()))
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		BodyLimit:             cfg.App.BodyLimitMB << 20,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, d.metrics, cfg.App.RequestTimeout())

	checks := map[string]handlers.Pinger{"store": d.store}
	if d.redis.Enabled() {
		checks["redis"] = d.redis
	}
	uploadDir := ""
	if local, ok := d.images.(*storage.LocalStore); ok {
		uploadDir = local.Dir()
	}
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, checks),
		Tickets:   handlers.NewTicketsHandler(d.tickets),
		Ops:       handlers.NewOpsHandler(d.sweep, d.notifications, cfg.Cron.Secret),
		Metrics:   d.metrics,
		UploadDir: uploadDir,
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-listenErr:
		if err != nil {
			logger.Error("fiber listen", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownGrace())
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}
	d.close(shutdownCtx)
	return nil
}
