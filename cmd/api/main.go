package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/saborhub/saborhub-backend/api"
	"github.com/saborhub/saborhub-backend/api/routes"
	"github.com/saborhub/saborhub-backend/internal/cart"
	"github.com/saborhub/saborhub-backend/internal/companies"
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

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	commerce := metrics.NewCommerce(registry)

	services, err := buildServices(cfg, logg, commerce, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	handler := routes.NewRouter(cfg, logg, commerce, registry, dbClient, redisClient, services)
	if err := api.Serve(ctx, api.NewServer(addr, handler), logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}

func buildServices(cfg *config.Config, logg *logger.Logger, commerce *metrics.Commerce, dbClient *db.Client, redisClient *redis.Client) (routes.Services, error) {
	conn := dbClient.DB()
	companyRepo := companies.NewRepository(conn)

	companyService, err := companies.NewService(companyRepo)
	if err != nil {
		return routes.Services{}, err
	}

	menuService, err := menu.NewService(menu.NewRepository(conn))
	if err != nil {
		return routes.Services{}, err
	}

	cartStore, err := cart.NewRedisStore(redisClient, cfg.Cart.SessionTTL)
	if err != nil {
		return routes.Services{}, err
	}
	cartLocks, err := cart.NewRedisLocker(redisClient, cfg.Cart.LockTTL, cfg.Cart.LockWait)
	if err != nil {
		return routes.Services{}, err
	}
	cartService, err := cart.NewService(cart.ServiceParams{
		Store:    cartStore,
		Products: menuService,
		Locks:    cartLocks,
		Config:   cfg.Cart,
		Metrics:  commerce,
		Logger:   logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:      orders.NewRepository(conn),
		Tx:        dbClient,
		Companies: companyRepo,
		Catalog:   menuService,
		Carts:     cartService,
		Locks:     cartLocks,
		Events:    outbox.NewEmitter(outbox.NewRepository(conn), logg),
		Config:    cfg.Orders,
		Metrics:   commerce,
		Logger:    logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Companies: companyService,
		Menu:      menuService,
		Cart:      cartService,
		Orders:    orderService,
	}, nil
}
