// Package config loads the application settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"

	"account_portal/internal/platform/db"
)

// Store drivers.
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Config centralizes the service configuration. It is built once in main.
type Config struct {
	AppName  string `env:"APP_NAME" envDefault:"Account Portal"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":3000"`
	BaseURL  string `env:"BASE_URL,required"` // origin used in reset links

	StoreDriver   string    `env:"STORE_DRIVER" envDefault:"mongo"`
	MongoURI      string    `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string    `env:"MONGODB_DATABASE" envDefault:"account_portal"`
	DB            db.Config `envPrefix:"DB_"`
	SQLitePath    string    `env:"SQLITE_PATH" envDefault:"account_portal.db"`
	RunMigrations bool      `env:"RUN_MIGRATIONS" envDefault:"true"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	SessionTTL            time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	SessionSecureCookie   bool          `env:"SESSION_SECURE_COOKIE" envDefault:"false"`
	MaxSessionsPerAccount int           `env:"MAX_SESSIONS_PER_ACCOUNT" envDefault:"5"`
	SessionSweepInterval  time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"10m"`

	CSRFSecret string `env:"CSRF_SECRET,required"`

	SMTPHost          string        `env:"SMTP_HOST"`
	SMTPPort          int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser          string        `env:"SMTP_USER"`
	SMTPPass          string        `env:"SMTP_PASS"`
	SMTPImplicitTLS   bool          `env:"SMTP_IMPLICIT_TLS" envDefault:"false"`
	SMTPTimeout       time.Duration `env:"SMTP_TIMEOUT" envDefault:"10s"`
	MailFrom          string        `env:"MAIL_FROM" envDefault:"no-reply@localhost"`
	MailFromName      string        `env:"MAIL_FROM_NAME"`
	MailRatePerMinute int           `env:"MAIL_RATE_PER_MINUTE" envDefault:"30"`

	LogFormat  string `env:"LOG_FORMAT" envDefault:"json"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	BcryptCost int    `env:"BCRYPT_COST" envDefault:"10"`
}

// LoadConfig reads the configuration from environment variables and validates it.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case StoreMongo, StorePostgres, StoreSQLite:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be one of mongo, postgres, sqlite; got %q", c.StoreDriver))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.MaxSessionsPerAccount < 0 {
		errs = append(errs, errors.New("MAX_SESSIONS_PER_ACCOUNT must not be negative"))
	}
	if len(c.CSRFSecret) < 16 {
		errs = append(errs, errors.New("CSRF_SECRET must be at least 16 characters"))
	}
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	// リセットリンクのオリジンはリクエストの Host ヘッダではなく設定値から組み立てる
	if u, err := url.Parse(c.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("BASE_URL must be an absolute http(s) URL; got %q", c.BaseURL))
	}

	return errors.Join(errs...)
}

// SQLConfig returns the connection settings for the postgres or sqlite store.
func (c *Config) SQLConfig() db.Config {
	cfg := c.DB
	cfg.Driver = c.StoreDriver
	cfg.SQLitePath = c.SQLitePath
	return cfg
}
