package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	Upstream UpstreamConfig
	Catalog  CatalogConfig
	Quote    QuoteConfig
	Drafts   DraftsConfig
	Redis    RedisConfig
	DB       DBConfig
	GCP      GCPConfig
	PubSub   PubSubConfig
	WhatsApp WhatsAppConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Upstream.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ORDERDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"ORDERDESK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ORDERDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ORDERDESK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// UpstreamConfig points at the collaborating REST APIs. The order desk never
// owns catalog, pricing, order or customer data; it fronts these services.
type UpstreamConfig struct {
	CatalogBaseURL   string        `envconfig:"ORDERDESK_UPSTREAM_CATALOG_URL"`
	PricingBaseURL   string        `envconfig:"ORDERDESK_UPSTREAM_PRICING_URL"`
	OrdersBaseURL    string        `envconfig:"ORDERDESK_UPSTREAM_ORDERS_URL"`
	CustomersBaseURL string        `envconfig:"ORDERDESK_UPSTREAM_CUSTOMERS_URL"`
	BaseURL          string        `envconfig:"ORDERDESK_UPSTREAM_BASE_URL"`
	RequestTimeout   time.Duration `envconfig:"ORDERDESK_UPSTREAM_REQUEST_TIMEOUT" default:"10s"`
}

func (u *UpstreamConfig) validate() error {
	if u.BaseURL == "" && (u.CatalogBaseURL == "" || u.PricingBaseURL == "" || u.OrdersBaseURL == "" || u.CustomersBaseURL == "") {
		return fmt.Errorf("either %s or all per-service upstream urls are required", EnvUpstreamBaseURL)
	}
	if u.CatalogBaseURL == "" {
		u.CatalogBaseURL = u.BaseURL
	}
	if u.PricingBaseURL == "" {
		u.PricingBaseURL = u.BaseURL
	}
	if u.OrdersBaseURL == "" {
		u.OrdersBaseURL = u.BaseURL
	}
	if u.CustomersBaseURL == "" {
		u.CustomersBaseURL = u.BaseURL
	}
	return nil
}

// CatalogConfig sets the staleness window per cached catalog resource.
type CatalogConfig struct {
	CategoriesTTL   time.Duration `envconfig:"ORDERDESK_CATALOG_CATEGORIES_TTL" default:"5m"`
	ProductTypesTTL time.Duration `envconfig:"ORDERDESK_CATALOG_PRODUCT_TYPES_TTL" default:"2m"`
	OfferingsTTL    time.Duration `envconfig:"ORDERDESK_CATALOG_OFFERINGS_TTL" default:"2m"`
}

type QuoteConfig struct {
	Debounce time.Duration `envconfig:"ORDERDESK_QUOTE_DEBOUNCE" default:"400ms"`
	Timeout  time.Duration `envconfig:"ORDERDESK_QUOTE_TIMEOUT" default:"8s"`
}

type DraftsConfig struct {
	TTL        time.Duration `envconfig:"ORDERDESK_DRAFT_TTL" default:"12h"`
	SubmitLock time.Duration `envconfig:"ORDERDESK_DRAFT_SUBMIT_LOCK" default:"30s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ORDERDESK_REDIS_URL"`
	Address      string        `envconfig:"ORDERDESK_REDIS_ADDR"`
	Password     string        `envconfig:"ORDERDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"ORDERDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ORDERDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ORDERDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ORDERDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ORDERDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ORDERDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// DBConfig backs the local submission journal. SQLite keeps single-counter
// deployments infra-free; Postgres serves multi-terminal shops.
type DBConfig struct {
	Driver string `envconfig:"ORDERDESK_DB_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"ORDERDESK_DB_DSN" default:"./data/orderdesk.db"`

	MaxOpenConns    int           `envconfig:"ORDERDESK_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"ORDERDESK_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"ORDERDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ORDERDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"ORDERDESK_DB_AUTO_MIGRATE" default:"true"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"ORDERDESK_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	Enabled              bool   `envconfig:"ORDERDESK_PUBSUB_ENABLED" default:"false"`
	OrdersTopic          string `envconfig:"ORDERDESK_PUBSUB_ORDERS_TOPIC" default:"orderdesk-order-events"`
	NotifierSubscription string `envconfig:"ORDERDESK_PUBSUB_NOTIFIER_SUBSCRIPTION" default:"orderdesk-notifier"`
}

type WhatsAppConfig struct {
	GatewayURL string        `envconfig:"ORDERDESK_WHATSAPP_GATEWAY_URL"`
	Token      string        `envconfig:"ORDERDESK_WHATSAPP_TOKEN"`
	Sender     string        `envconfig:"ORDERDESK_WHATSAPP_SENDER"`
	Timeout    time.Duration `envconfig:"ORDERDESK_WHATSAPP_TIMEOUT" default:"15s"`
}
