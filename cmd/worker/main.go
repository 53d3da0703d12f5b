package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/artemoderno/storefront/internal/app"
	"github.com/artemoderno/storefront/internal/notify"
	"github.com/artemoderno/storefront/internal/observability"
	"github.com/artemoderno/storefront/internal/platform/db"
	"github.com/artemoderno/storefront/jobs"
)

func main() {
	if app.SkipStartup("worker") {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg).With(slog.String("component", "worker"))

	pool, err := db.New(ctx, cfg.PGDSN, cfg.Postgres("worker"))
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	mailer, err := notify.NewMailer(cfg.SMTP(), logger)
	if err != nil {
		logger.Error("init mailer", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	core := app.NewCore(cfg, pool, mailer, metrics, logger)

	notifyJob := jobs.NewOrderNotifyJob(core.Confirmer, logger, metrics)
	mailJob := &jobs.SendEmailJob{Sender: mailer, Logger: logger, Metrics: metrics}
	cleanupJob := &jobs.CheckoutKeysCleanupJob{Store: core.Idempotency, Logger: logger, Metrics: metrics}
	exportJob := &jobs.OrdersExportJob{Exporter: core.Exporter, Logger: logger, Metrics: metrics}

	cleanupTask, err := jobs.NewCheckoutKeysCleanupTask(0)
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: cfg.Asynq(),
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskOrderNotify, Handler: notifyJob.Handle},
			{Type: jobs.TaskTypeSendEmail, Handler: mailJob.Handle},
			{Type: jobs.TaskCheckoutKeysCleanup, Handler: cleanupJob.Handle},
			{Type: jobs.TaskOrdersExport, Handler: exportJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "30 3 * * *", Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
