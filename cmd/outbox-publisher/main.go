package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/saborhub/saborhub-backend/pkg/config"
	"github.com/saborhub/saborhub-backend/pkg/db"
	"github.com/saborhub/saborhub-backend/pkg/instance"
	"github.com/saborhub/saborhub-backend/pkg/logger"
	"github.com/saborhub/saborhub-backend/pkg/migrate"
	"github.com/saborhub/saborhub-backend/pkg/outbox"
	"github.com/saborhub/saborhub-backend/pkg/pubsub"
)

const serviceName = "outbox-publisher"

func main() {
	bootLog := logger.New(logger.Options{ServiceName: serviceName})
	if err := godotenv.Load(); err != nil {
		bootLog.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		bootLog.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg := logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"topic":    cfg.PubSub.OrdersTopic,
		"instance": instance.GetID(),
	})

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "outbox publisher stopped unexpectedly", err)
		stop()
		os.Exit(1)
	}
	logg.Info(ctx, "outbox publisher shutting down gracefully")
}

// run owns every resource so the deferred closers fire before main exits.
func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		return fmt.Errorf("bootstrap pubsub: %w", err)
	}
	defer func() { err = multierr.Append(err, pubsubClient.Close()) }()

	publisher := pubsub.NewEventPublisher(pubsubClient.OrdersPublisher())
	defer publisher.Stop()

	service, err := NewService(ServiceParams{
		Config:     cfg.Outbox,
		Logger:     logg,
		DB:         dbClient,
		Repository: outbox.NewRepository(dbClient.DB()),
		Publisher:  publisher,
	})
	if err != nil {
		return fmt.Errorf("create outbox publisher: %w", err)
	}

	logg.Info(ctx, "starting outbox publisher")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
