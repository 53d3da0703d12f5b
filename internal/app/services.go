package app

import (
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/artemoderno/storefront/internal/catalog"
	"github.com/artemoderno/storefront/internal/invoice"
	"github.com/artemoderno/storefront/internal/notify"
	"github.com/artemoderno/storefront/internal/observability"
	"github.com/artemoderno/storefront/internal/orders"
	"github.com/artemoderno/storefront/internal/orders/export"
	"github.com/artemoderno/storefront/internal/platform/cache"
	"github.com/artemoderno/storefront/internal/platform/db"
	"github.com/artemoderno/storefront/internal/shared"
	"github.com/artemoderno/storefront/report"
)

// Core bundles the services shared by the storefront, the worker and the CLI.
type Core struct {
	Catalog     *catalog.Service
	Orders      *orders.PGRepository
	Confirmer   *orders.Confirmer
	Exporter    *export.Exporter
	PDF         *report.Client
	Idempotency *shared.IdempotencyStore
}

// Postgres returns the pool settings for the named process.
func (c *Config) Postgres(process string) db.PoolConfig {
	return db.PoolConfig{MaxConns: c.PGMaxConns, ApplicationName: "artemoderno-" + process}
}

// Redis returns the session store connection settings.
func (c *Config) Redis() cache.Options {
	return cache.Options{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}

// Asynq returns the queue connection settings; the queue shares the
// session Redis instance.
func (c *Config) Asynq() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}

// Seller returns the invoice seller block configured for the shop.
func (c *Config) Seller() invoice.Seller {
	seller := invoice.DefaultSeller()
	if c.SellerName != "" {
		seller.Name = c.SellerName
	}
	if c.SellerAddress != "" {
		seller.Address = c.SellerAddress
	}
	if c.SellerIDs != "" {
		seller.IDs = c.SellerIDs
	}
	return seller
}

// SMTP returns the mailer settings.
func (c *Config) SMTP() notify.SMTPConfig {
	return notify.SMTPConfig{
		Host:       c.SMTPHost,
		Port:       c.SMTPPort,
		Username:   c.SMTPUsername,
		Password:   c.SMTPPassword,
		From:       c.SMTPFrom,
		RequireTLS: c.SMTPTLS,
		Timeout:    c.SMTPTimeout,
	}
}

// NewCore wires the repositories and services over one pool. mail delivers
// the confirmation mails run by the Confirmer.
func NewCore(cfg *Config, pool *pgxpool.Pool, mail notify.Sender, metrics *observability.Metrics, logger *slog.Logger) *Core {
	pdf := report.NewClient(cfg.GotenbergURL)
	catalogService := catalog.NewService(catalog.NewRepository(pool))
	ordersRepo := orders.NewRepository(pool)
	return &Core{
		Catalog:     catalogService,
		Orders:      ordersRepo,
		Confirmer:   orders.NewConfirmer(ordersRepo, catalogService, invoice.NewRenderer(pdf), mail, cfg.Seller(), metrics, logger),
		Exporter:    export.NewExporter(ordersRepo, pdf, cfg.ExportDir, logger),
		PDF:         pdf,
		Idempotency: shared.NewIdempotencyStore(pool),
	}
}
