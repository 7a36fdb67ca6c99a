package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/brightwash/orderdesk-backend/internal/customers"
	"github.com/brightwash/orderdesk-backend/internal/notify"
	"github.com/brightwash/orderdesk-backend/pkg/config"
	"github.com/brightwash/orderdesk-backend/pkg/logger"
	"github.com/brightwash/orderdesk-backend/pkg/pubsub"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "notifier"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "notifier",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "error closing pubsub", err)
		}
	}()

	subscription := pubsubClient.NotifierSubscription()
	if subscription == nil {
		requireResource(ctx, logg, "notifier subscription", errors.New("subscription not configured"))
	}

	gateway, err := notify.NewGateway(cfg.WhatsApp)
	requireResource(ctx, logg, "whatsapp gateway", err)

	customersClient, err := customers.NewClient(cfg.Upstream.CustomersBaseURL,
		customers.WithTimeout(cfg.Upstream.RequestTimeout))
	requireResource(ctx, logg, "customers client", err)

	consumer, err := notify.NewConsumer(subscription, gateway, customersClient, logg)
	requireResource(ctx, logg, "notify consumer", err)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	runCtx = logg.WithField(runCtx, "env", cfg.App.Env)
	logg.Info(runCtx, "notifier ready")

	if err := consumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "notifier failed", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
