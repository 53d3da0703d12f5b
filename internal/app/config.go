package app

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Notification delivery modes.
const (
	NotifyModeQueue  = "queue"
	NotifyModeInline = "inline"
)

// Config holds runtime configuration for the storefront, the worker and the CLI.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppBaseURL        string        `envconfig:"APP_BASE_URL" default:"http://localhost:8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"30s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	PGDSN       string `envconfig:"PG_DSN"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	PGMaxConns  int32  `envconfig:"PG_MAX_CONNS" default:"10"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"168h"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true"`
	SecretKey  string `envconfig:"SECRET_KEY" required:"true"`

	SMTPHost     string        `envconfig:"SMTP_HOST" default:"127.0.0.1"`
	SMTPPort     int           `envconfig:"SMTP_PORT" default:"1025"`
	SMTPUsername string        `envconfig:"SMTP_USERNAME"`
	SMTPPassword string        `envconfig:"SMTP_PASSWORD"`
	SMTPFrom     string        `envconfig:"SMTP_FROM" default:"obchod@artemoderno.local"`
	SMTPTLS      bool          `envconfig:"SMTP_TLS" default:"false"`
	SMTPTimeout  time.Duration `envconfig:"SMTP_TIMEOUT" default:"10s"`

	GotenbergURL string `envconfig:"GOTENBERG_URL" default:"http://127.0.0.1:3000"`
	ExportDir    string `envconfig:"EXPORT_DIR" default:"exports"`
	NotifyMode   string `envconfig:"NOTIFY_MODE" default:"queue"`

	ProductImageDir string `envconfig:"PRODUCT_IMAGE_DIR" default:"static/product-images"`

	SellerName    string `envconfig:"SELLER_NAME" default:"ArteModerno s.r.o."`
	SellerAddress string `envconfig:"SELLER_ADDRESS" default:"Praha 1, Česká republika"`
	SellerIDs     string `envconfig:"SELLER_IDS" default:"IČO: 12345678, DIČ: CZ12345678"`
}

// LoadConfig reads an optional .env file and then environment variables.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.PGDSN == "" {
		cfg.PGDSN = cfg.DatabaseURL
	}
	if cfg.PGDSN == "" {
		return nil, errors.New("PG_DSN or DATABASE_URL must be provided")
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret must be provided")
	}
	if cfg.CSRFSecret == "" {
		return nil, errors.New("csrf secret must be provided")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must be provided")
	}
	switch cfg.NotifyMode {
	case NotifyModeQueue, NotifyModeInline:
	default:
		return nil, errors.New("NOTIFY_MODE must be queue or inline")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
