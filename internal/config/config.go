// internal/config/config.go
package config

import (
	"context"
	"fmt"
	"time"

	"fashionsphere-service/internal/db"
	"fashionsphere-service/internal/pkg/jwt"
	"fashionsphere-service/internal/scheduler"
	"fashionsphere-service/internal/service/discount"
	"fashionsphere-service/internal/service/email"
	"fashionsphere-service/internal/service/restock"

	"github.com/sethvargo/go-envconfig"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type AppConfig struct {
	HTTP HTTPConfig `env:",prefix=HTTP_"`
	App  App        `env:",prefix=APP_"`

	StoreDriver string                 `env:"STORE_DRIVER,default=postgres"`
	Postgres    db.PostgresConfig      `env:",prefix=DB_"`
	Redis       db.RedisConfig         `env:",prefix=REDIS_"`
	JWT         jwt.Config             `env:",prefix=JWT_"`
	SMTP        email.SMTPConfig       `env:",prefix=SMTP_"`
	Notify      email.DispatcherConfig `env:",prefix=NOTIFY_"`
	Sale        SaleConfig             `env:",prefix=SALE_"`
	Restock     restock.Config         `env:",prefix=RESTOCK_"`
	Admin       AdminConfig            `env:",prefix=ADMIN_"`
}

type HTTPConfig struct {
	Addr            string        `env:"ADDR,default=:8000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=15s"`
	CORSOrigins     []string      `env:"CORS_ORIGINS,default=*"`
}

type App struct {
	Environment string `env:"ENVIRONMENT,default=production"`
}

// SaleConfig drives discount reconciliation and its schedule.
type SaleConfig struct {
	Scheduler         scheduler.Config
	NotifyPolicy      string `env:"NOTIFY_POLICY,default=on_change"`
	UpdateConcurrency int    `env:"UPDATE_CONCURRENCY,default=8"`
}

// AdminConfig bootstraps the first admin account. Skipped when the email is empty.
type AdminConfig struct {
	Email    string `env:"EMAIL"`
	Password string `env:"PASSWORD"`
	Name     string `env:"NAME,default=Store Administrator"`
}

// Load reads the environment into AppConfig.
func Load(ctx context.Context) (*AppConfig, error) {
	var cfg AppConfig
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if _, err := discount.ParseNotifyPolicy(c.Sale.NotifyPolicy); err != nil {
		return fmt.Errorf("SALE_NOTIFY_POLICY: %w", err)
	}
	if c.Sale.UpdateConcurrency < 1 {
		return fmt.Errorf("SALE_UPDATE_CONCURRENCY must be positive, got %d", c.Sale.UpdateConcurrency)
	}
	if c.Admin.Email != "" && len(c.Admin.Password) < 8 {
		return fmt.Errorf("ADMIN_PASSWORD must be at least 8 characters")
	}
	return nil
}

// IsDevelopment returns true if running in development environment
func (c *AppConfig) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// SMTPEnabled reports whether outbound mail goes to a real server.
func (c *AppConfig) SMTPEnabled() bool {
	return c.SMTP.Host != ""
}
