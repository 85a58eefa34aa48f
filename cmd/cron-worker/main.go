package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/saborhub/saborhub-backend/internal/cart"
	"github.com/saborhub/saborhub-backend/internal/companies"
	"github.com/saborhub/saborhub-backend/internal/cron"
	"github.com/saborhub/saborhub-backend/internal/menu"
	"github.com/saborhub/saborhub-backend/internal/orders"
	"github.com/saborhub/saborhub-backend/pkg/config"
	"github.com/saborhub/saborhub-backend/pkg/db"
	"github.com/saborhub/saborhub-backend/pkg/instance"
	"github.com/saborhub/saborhub-backend/pkg/logger"
	"github.com/saborhub/saborhub-backend/pkg/metrics"
	"github.com/saborhub/saborhub-backend/pkg/migrate"
	"github.com/saborhub/saborhub-backend/pkg/outbox"
	"github.com/saborhub/saborhub-backend/pkg/redis"
)

const lockKeyFormat = "sh:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry, err := buildJobs(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build maintenance jobs", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Maintenance.Interval)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewJobs(prometheus.DefaultRegisterer),
		Interval: cfg.Maintenance.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"jobs":     registry.Names(),
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

// buildJobs wires the order service the same way cmd/api does so expirations restock
// products and queue order.status_changed.
func buildJobs(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (*cron.Registry, error) {
	conn := dbClient.DB()
	outboxRepo := outbox.NewRepository(conn)

	menuService, err := menu.NewService(menu.NewRepository(conn))
	if err != nil {
		return nil, err
	}
	cartStore, err := cart.NewRedisStore(redisClient, cfg.Cart.SessionTTL)
	if err != nil {
		return nil, err
	}
	cartLocks, err := cart.NewRedisLocker(redisClient, cfg.Cart.LockTTL, cfg.Cart.LockWait)
	if err != nil {
		return nil, err
	}
	cartService, err := cart.NewService(cart.ServiceParams{
		Store:    cartStore,
		Products: menuService,
		Locks:    cartLocks,
		Config:   cfg.Cart,
		Logger:   logg,
	})
	if err != nil {
		return nil, err
	}
	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:      orders.NewRepository(conn),
		Tx:        dbClient,
		Companies: companies.NewRepository(conn),
		Catalog:   menuService,
		Carts:     cartService,
		Locks:     cartLocks,
		Events:    outbox.NewEmitter(outboxRepo, logg),
		Config:    cfg.Orders,
		Logger:    logg,
	})
	if err != nil {
		return nil, err
	}

	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outboxRepo,
		Retention:  cfg.Maintenance.OutboxRetention,
	})
	if err != nil {
		return nil, err
	}
	unconfirmed, err := cron.NewUnconfirmedOrdersJob(cron.UnconfirmedOrdersJobParams{
		Logger:    logg,
		Orders:    orderService,
		TTL:       cfg.Maintenance.UnconfirmedOrderTTL,
		BatchSize: cfg.Maintenance.BatchSize,
	})
	if err != nil {
		return nil, err
	}
	return cron.NewRegistry(unconfirmed, retention)
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
