package config

import (
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ORDERDESK_APP_ENV", "development")
	t.Setenv("ORDERDESK_APP_PORT", "8080")
	t.Setenv("ORDERDESK_UPSTREAM_BASE_URL", "http://backend.local")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !cfg.App.IsDev() {
		t.Fatal("expected dev environment")
	}
	if cfg.Quote.Debounce != 400*time.Millisecond {
		t.Fatalf("unexpected debounce default: %v", cfg.Quote.Debounce)
	}
	if cfg.DB.Driver != "sqlite" {
		t.Fatalf("unexpected db driver default: %s", cfg.DB.Driver)
	}
	if cfg.Upstream.CatalogBaseURL != "http://backend.local" {
		t.Fatalf("expected catalog url to fall back to base url, got %s", cfg.Upstream.CatalogBaseURL)
	}
}

func TestLoadPerServiceURLOverridesBase(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ORDERDESK_UPSTREAM_PRICING_URL", "http://pricing.local")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Upstream.PricingBaseURL != "http://pricing.local" {
		t.Fatalf("expected pricing override, got %s", cfg.Upstream.PricingBaseURL)
	}
	if cfg.Upstream.OrdersBaseURL != "http://backend.local" {
		t.Fatalf("expected orders fallback, got %s", cfg.Upstream.OrdersBaseURL)
	}
}

func TestLoadRequiresUpstreams(t *testing.T) {
	t.Setenv("ORDERDESK_APP_ENV", "development")
	t.Setenv("ORDERDESK_APP_PORT", "8080")
	t.Setenv("ORDERDESK_UPSTREAM_BASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when no upstream urls are configured")
	}
}
