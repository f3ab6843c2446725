package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/posengine-backend/api/routes"
	"github.com/angelmondragon/posengine-backend/internal/cart"
	"github.com/angelmondragon/posengine-backend/internal/checkout"
	"github.com/angelmondragon/posengine-backend/internal/pricing"
	product "github.com/angelmondragon/posengine-backend/internal/products"
	"github.com/angelmondragon/posengine-backend/internal/sales"
	"github.com/angelmondragon/posengine-backend/internal/stock"
	"github.com/angelmondragon/posengine-backend/internal/variants"
	"github.com/angelmondragon/posengine-backend/pkg/config"
	"github.com/angelmondragon/posengine-backend/pkg/db"
	"github.com/angelmondragon/posengine-backend/pkg/logger"
	"github.com/angelmondragon/posengine-backend/pkg/metrics"
	"github.com/angelmondragon/posengine-backend/pkg/migrate"
	"github.com/angelmondragon/posengine-backend/pkg/outbox"
	"github.com/angelmondragon/posengine-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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
		Format:      cfg.App.LogFormat,
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
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps, err := buildServices(cfg, logg, dbClient, redisClient, registry)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"dialect": dbClient.Dialect(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, registry *prometheus.Registry) (routes.Deps, error) {
	conn := dbClient.DB()
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)

	catalog := pricing.NewRepository(conn)
	resolver, err := pricing.NewResolver(cfg.Pricing.CashDiscountPercent, catalog)
	if err != nil {
		return routes.Deps{}, err
	}
	pricer, err := cart.NewPricer(catalog, resolver)
	if err != nil {
		return routes.Deps{}, err
	}
	cartStore, err := cart.NewRedisStore(redisClient, cfg.Cart.SessionTTL)
	if err != nil {
		return routes.Deps{}, err
	}
	cartService, err := cart.NewService(cartStore, catalog, pricer)
	if err != nil {
		return routes.Deps{}, err
	}

	productService, err := product.NewService(
		product.NewRepository(conn),
		dbClient,
		emitter,
		variants.NewGenerator(cfg.Pricing.MaxVariantsPerProduct),
		logg,
	)
	if err != nil {
		return routes.Deps{}, err
	}

	stockService, err := stock.NewService(stock.NewRepository(conn), dbClient, emitter, logg)
	if err != nil {
		return routes.Deps{}, err
	}

	salesService, err := sales.NewService(sales.NewRepository(conn))
	if err != nil {
		return routes.Deps{}, err
	}

	numberer, err := checkout.NewDailyNumberer(redisClient)
	if err != nil {
		return routes.Deps{}, err
	}
	checkoutService, err := checkout.NewService(checkout.Deps{
		Carts:    cartStore,
		Pricer:   pricer,
		Stock:    stockService,
		Sales:    salesService,
		Outbox:   emitter,
		Tx:       dbClient,
		Numberer: numberer,
		Metrics:  metrics.NewCheckoutMetrics(registry),
		Logger:   logg,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	return routes.Deps{
		Config:      cfg,
		Logger:      logg,
		DB:          dbClient,
		Redis:       redisClient,
		Idempotency: redisClient,
		Gatherer:    registry,
		Products:    productService,
		Stock:       stockService,
		Cart:        cartService,
		Checkout:    checkoutService,
		Sales:       salesService,
	}, nil
}
