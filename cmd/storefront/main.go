package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/crypto/bcrypt"

	"github.com/artemoderno/storefront/internal/app"
	"github.com/artemoderno/storefront/internal/auth"
	"github.com/artemoderno/storefront/internal/cart"
	"github.com/artemoderno/storefront/internal/catalog"
	"github.com/artemoderno/storefront/internal/customers"
	"github.com/artemoderno/storefront/internal/leads"
	"github.com/artemoderno/storefront/internal/notify"
	"github.com/artemoderno/storefront/internal/observability"
	"github.com/artemoderno/storefront/internal/orders"
	"github.com/artemoderno/storefront/internal/platform/cache"
	"github.com/artemoderno/storefront/internal/platform/db"
	"github.com/artemoderno/storefront/internal/resettoken"
	"github.com/artemoderno/storefront/internal/shared"
	"github.com/artemoderno/storefront/internal/view"
	"github.com/artemoderno/storefront/jobs"
	"github.com/artemoderno/storefront/report"
)

func main() {
	if app.SkipStartup("storefront") {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.Postgres("storefront"))
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.Redis())
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "artemoderno_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	mailer, err := notify.NewMailer(cfg.SMTP(), logger)
	if err != nil {
		logger.Error("init mailer", slog.Any("error", err))
		os.Exit(1)
	}
	core := app.NewCore(cfg, dbpool, mailer, metrics, logger)

	// Queue mode hands every mail to the worker; inline mode sends them from
	// the request goroutine.
	var (
		notifier  orders.Notifier
		sender    notify.Sender = mailer
		jobsPanel *jobs.Handler
	)
	switch cfg.NotifyMode {
	case app.NotifyModeQueue:
		redisOpts := cfg.Asynq()
		client := jobs.NewClient(redisOpts, metrics)
		defer func() {
			if err := client.Close(); err != nil {
				logger.Warn("asynq client close", slog.Any("error", err))
			}
		}()
		inspector := asynq.NewInspector(redisOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		notifier = client
		sender = client
		jobsPanel = jobs.NewHandler(inspector, logger)
	default:
		notifier = orders.NewInlineNotifier(core.Confirmer)
		jobsPanel = jobs.NewHandler(nil, logger)
	}

	customerResets, err := resettoken.NewIssuer(cfg.SecretKey, resettoken.AudienceCustomer)
	if err != nil {
		logger.Error("init reset tokens", slog.Any("error", err))
		os.Exit(1)
	}
	adminResets, err := resettoken.NewIssuer(cfg.SecretKey, resettoken.AudienceAdmin)
	if err != nil {
		logger.Error("init admin reset tokens", slog.Any("error", err))
		os.Exit(1)
	}

	ordersService := orders.NewService(core.Orders, notifier, metrics, logger)
	customerService := customers.NewService(customers.NewRepository(dbpool), customerResets, sender, cfg.AppBaseURL, logger)
	adminService := auth.NewService(auth.NewRepository(dbpool), adminResets, sender, cfg.AppBaseURL, logger, bcrypt.DefaultCost)
	leadService := leads.NewService(leads.NewRepository(dbpool))

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		Templates:           templates,
		SessionManager:      sessionManager,
		CSRFManager:         csrfManager,
		Metrics:             metrics,
		CatalogHandler:      catalog.NewHandler(logger, core.Catalog, templates, csrfManager),
		CartHandler:         cart.NewHandler(logger, core.Catalog, templates, csrfManager),
		CheckoutHandler:     orders.NewHandler(logger, ordersService, core.Catalog, templates, csrfManager),
		CustomerHandler:     customers.NewHandler(logger, customerService, templates, sessionManager, csrfManager),
		LeadHandler:         leads.NewHandler(logger, leadService, templates, csrfManager),
		AuthHandler:         auth.NewHandler(logger, adminService, templates, sessionManager, csrfManager),
		CatalogAdminHandler: catalog.NewAdminHandler(logger, core.Catalog, templates, csrfManager),
		OrdersAdminHandler:  orders.NewAdminHandler(logger, ordersService, core.Confirmer, core.Exporter, templates, csrfManager),
		ReportHandler:       report.NewHandler(core.PDF, logger),
		JobHandler:          jobsPanel,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("notify_mode", cfg.NotifyMode))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
