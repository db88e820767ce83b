package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/autovitrine/marketplace/internal/api"
	"github.com/autovitrine/marketplace/internal/listing"
	"github.com/autovitrine/marketplace/internal/store"
	"github.com/autovitrine/marketplace/internal/store/migrations"
	"github.com/autovitrine/marketplace/pkg/access"
	"github.com/autovitrine/marketplace/pkg/asaas"
	"github.com/autovitrine/marketplace/pkg/httpserver"
	"github.com/autovitrine/marketplace/pkg/logger"
	"github.com/autovitrine/marketplace/pkg/metrics"
	"github.com/autovitrine/marketplace/pkg/payments"
	"github.com/autovitrine/marketplace/pkg/pg"
	"github.com/autovitrine/marketplace/pkg/plans"
	"github.com/autovitrine/marketplace/pkg/redis"
	"github.com/autovitrine/marketplace/pkg/usage"
)

func newServeCmd() *cobra.Command {
	var skipMigrations bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, !skipMigrations)
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply pending migrations on startup")
	return cmd
}

func serve(ctx context.Context, cfg appConfig, migrate bool) error {
	log := newLogger(cfg)

	pool, err := pg.Connect(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()
	if migrate {
		if err := pg.Migrate(ctx, pool, migrations.FS, migrations.Dir, cfg.DB, log); err != nil {
			return err
		}
	}

	rdb, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	m := metrics.New()
	handler, err := buildAPI(ctx, cfg, log, pool, rdb, m)
	if err != nil {
		return err
	}

	log.InfoContext(ctx, "starting http server", slog.String("addr", cfg.HTTP.Addr))
	return httpserver.New(cfg.HTTP, httpserver.WithLogger(log)).Run(ctx, handler)
}

// buildAPI wires the repositories, the evaluator, the dispatcher and the
// listing service behind the router.
func buildAPI(ctx context.Context, cfg appConfig, log *slog.Logger, pool *pgxpool.Pool, rdb *goredis.Client, m *metrics.Metrics) (http.Handler, error) {
	catalogRepo := store.NewCatalogRepo(pool)
	src := plansSource(cfg, catalogRepo, log)

	accounts := store.NewAccountRepo(pool)
	promotions := store.NewPromotionRepo(pool)
	vehicles := store.NewVehicleRepo(pool)
	paymentRepo := store.NewPaymentRepo(pool)

	externalCalls := usage.NewRedisMeter(rdb, plans.ResourceExternalCalls,
		usage.WithMeterPrefix(cfg.Redis.KeyPrefix+":usage"))

	registry := usage.NewRegistry()
	registry.Register(plans.ResourceVehicles, vehicles.CountActive)
	registry.Register(plans.ResourceFeaturedVehicles, vehicles.CountFeatured)
	registry.Register(plans.ResourceExternalCalls, externalCalls.CounterFunc())
	if cfg.S3.Enabled() {
		storage, err := usage.NewS3StorageCounter(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		registry.Register(plans.ResourceStorageMB, storage.CounterFunc())
	}
	counter := usage.NewCounter(registry)

	// Loaded once: activations default to the catalog's base plan.
	catalog, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	subscriptions := store.NewSubscriptionRepo(pool, catalog.Base().ID)

	evaluator, err := access.NewEvaluator(ctx, plans.NewInMemSource(catalog), accounts, subscriptions, promotions, counter,
		access.WithLogger(log))
	if err != nil {
		return nil, err
	}
	log.InfoContext(ctx, "plan catalog loaded",
		slog.Int("version", catalog.Version()), logger.PlanID(string(catalog.Base().ID)))

	dispatcher := payments.NewDispatcher(paymentRepo, accounts, subscriptions,
		payments.WithGracePeriod(cfg.gracePeriod()), payments.WithLogger(log))

	listings := listing.NewService(vehicles, evaluator,
		listing.WithMeter(externalCalls), listing.WithLogger(log))

	deps := api.Deps{
		Evaluator:     evaluator,
		Usage:         counter,
		Listings:      listings,
		Dispatcher:    dispatcher,
		Subscriptions: subscriptions,
		Payments:      paymentRepo,
		Accounts:      accounts,
	}
	if cfg.Asaas.Enabled() {
		client, err := asaas.New(cfg.Asaas, asaas.WithLogger(log))
		if err != nil {
			return nil, err
		}
		deps.Billing = client
	} else {
		log.WarnContext(ctx, "ASAAS_API_KEY is not set, billing endpoints are disabled")
	}
	if cfg.WebhookToken == "" {
		log.WarnContext(ctx, "BILLING_WEBHOOK_TOKEN is not set, webhook requests are not authenticated")
	}

	return api.New(deps,
		api.WithLogger(log),
		api.WithMetrics(m),
		api.WithCORSOrigins(cfg.CORSOrigins...),
		api.WithWebhookToken(cfg.WebhookToken),
		api.WithReadinessChecks(
			httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)},
			httpserver.Check{Name: "redis", Fn: redis.Healthcheck(rdb)},
		),
	), nil
}

// plansSource prefers PLANS_FILE, then the latest published catalog, and
// falls back to the built-in plans.
func plansSource(cfg appConfig, repo *store.CatalogRepo, log *slog.Logger) plans.Source {
	var primary plans.Source = repo
	if cfg.PlansFile != "" {
		primary = plans.NewYAMLSource(cfg.PlansFile)
	}
	return plans.NewFallbackSource(primary, plans.DefaultSource(), func(err error) {
		log.Warn("using built-in plan catalog", logger.Error(err), slog.String("plans_file", cfg.PlansFile))
	})
}
