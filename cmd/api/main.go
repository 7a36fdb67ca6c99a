package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/brightwash/orderdesk-backend/api/controllers"
	"github.com/brightwash/orderdesk-backend/api/routes"
	"github.com/brightwash/orderdesk-backend/internal/catalog"
	"github.com/brightwash/orderdesk-backend/internal/customers"
	"github.com/brightwash/orderdesk-backend/internal/draft"
	"github.com/brightwash/orderdesk-backend/internal/journal"
	"github.com/brightwash/orderdesk-backend/internal/orders"
	"github.com/brightwash/orderdesk-backend/internal/pricing"
	"github.com/brightwash/orderdesk-backend/pkg/config"
	"github.com/brightwash/orderdesk-backend/pkg/db"
	"github.com/brightwash/orderdesk-backend/pkg/db/models"
	"github.com/brightwash/orderdesk-backend/pkg/logger"
	"github.com/brightwash/orderdesk-backend/pkg/metrics"
	"github.com/brightwash/orderdesk-backend/pkg/pubsub"
	"github.com/brightwash/orderdesk-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if cfg.DB.AutoMigrate {
		requireResource(ctx, logg, "migrations", dbClient.DB().AutoMigrate(&models.Submission{}))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	catalogClient, err := catalog.NewClient(cfg.Upstream.CatalogBaseURL,
		catalog.WithTimeout(cfg.Upstream.RequestTimeout))
	requireResource(ctx, logg, "catalog client", err)

	catalogService, err := catalog.NewService(catalogClient, cfg.Catalog, metrics.NewCatalogMetrics(registry))
	requireResource(ctx, logg, "catalog service", err)

	pricingClient, err := pricing.NewClient(cfg.Upstream.PricingBaseURL,
		pricing.WithTimeout(cfg.Upstream.RequestTimeout))
	requireResource(ctx, logg, "pricing client", err)

	customersClient, err := customers.NewClient(cfg.Upstream.CustomersBaseURL,
		customers.WithTimeout(cfg.Upstream.RequestTimeout))
	requireResource(ctx, logg, "customers client", err)

	ordersClient, err := orders.NewClient(cfg.Upstream.OrdersBaseURL,
		orders.WithTimeout(cfg.Upstream.RequestTimeout))
	requireResource(ctx, logg, "orders client", err)

	draftStore, err := draft.NewRedisStore(redisClient, cfg.Drafts.TTL)
	requireResource(ctx, logg, "draft store", err)

	draftService, err := draft.NewService(draft.ServiceParams{
		Store:   draftStore,
		Catalog: catalogService,
		Pricing: pricingClient,
		Quote:   cfg.Quote,
		Logger:  logg,
		Metrics: metrics.NewQuoteMetrics(registry),
	})
	requireResource(ctx, logg, "draft service", err)
	defer draftService.Close()

	journalRepo, err := journal.NewRepository(dbClient.DB())
	requireResource(ctx, logg, "submission journal", err)

	var publisher orders.Publisher
	var pubsubClient *pubsub.Client
	if cfg.PubSub.Enabled {
		pubsubClient, err = pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		requireResource(ctx, logg, "pubsub", err)
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(ctx, "error closing pubsub", err)
			}
		}()
		publisher = orders.NewGCPPublisher(pubsubClient.OrdersPublisher())
	}

	submitter, err := orders.NewSubmitter(orders.SubmitterParams{
		Drafts:    draftService,
		Client:    ordersClient,
		Locker:    redisClient,
		Journal:   journalRepo,
		Publisher: publisher,
		LockTTL:   cfg.Drafts.SubmitLock,
		Logger:    logg,
		Metrics:   metrics.NewSubmissionMetrics(registry),
	})
	requireResource(ctx, logg, "order submitter", err)

	checks := []controllers.ReadinessCheck{
		{Name: "redis", Check: redisClient.Ping},
		{Name: "database", Check: dbClient.Ping},
	}
	if pubsubClient != nil {
		checks = append(checks, controllers.ReadinessCheck{Name: "pubsub", Check: pubsubClient.Ping})
	}

	router := routes.NewRouter(routes.RouterParams{
		Config:          cfg,
		Logger:          logg,
		Catalog:         catalogService,
		Customers:       customersClient,
		Drafts:          draftService,
		Submitter:       submitter,
		Journal:         journalRepo,
		Idempotency:     redisClient,
		Registry:        registry,
		ReadinessChecks: checks,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(runCtx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(runCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(runCtx, "graceful shutdown failed", err)
		}
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
