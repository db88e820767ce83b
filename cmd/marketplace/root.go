package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/autovitrine/marketplace/pkg/asaas"
	"github.com/autovitrine/marketplace/pkg/config"
	"github.com/autovitrine/marketplace/pkg/httpserver"
	"github.com/autovitrine/marketplace/pkg/logger"
	"github.com/autovitrine/marketplace/pkg/payments"
	"github.com/autovitrine/marketplace/pkg/pg"
	"github.com/autovitrine/marketplace/pkg/redis"
	"github.com/autovitrine/marketplace/pkg/requestid"
	"github.com/autovitrine/marketplace/pkg/usage"
)

const serviceName = "marketplace"

// appConfig is the whole process configuration.
type appConfig struct {
	Env          string        `env:"APP_ENV" envDefault:"development"`
	PlansFile    string        `env:"PLANS_FILE"`
	WebhookToken string        `env:"BILLING_WEBHOOK_TOKEN"`
	GracePeriod  time.Duration `env:"GRACE_PERIOD"`
	CORSOrigins  []string      `env:"CORS_ORIGINS" envSeparator:","`

	Log   logger.Config
	DB    pg.Config
	Redis redis.Config
	HTTP  httpserver.Config
	Asaas asaas.Config
	S3    usage.S3Config
}

func (c appConfig) gracePeriod() time.Duration {
	if c.GracePeriod > 0 {
		return c.GracePeriod
	}
	return payments.DefaultGracePeriod
}

func loadConfig() (appConfig, error) {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return appConfig{}, err
	}
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	return cfg, nil
}

func newLogger(cfg appConfig) *slog.Logger {
	log := logger.New(
		logger.WithEnvironment(cfg.Env, serviceName),
		logger.WithConfig(cfg.Log),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)
	return log
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Vehicle marketplace plans, entitlements and billing",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetContext(context.Background())

	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newPlansCmd())
	return root
}
