package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/foodtuck/storefront/pkg/config"
	"github.com/foodtuck/storefront/pkg/database"
)

// Cart storage backends.
const (
	CartStoreRedis  = "redis"
	CartStoreMemory = "memory"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// Cart storage
	CartStore    string `env:"CART_STORE" envDefault:"redis"`
	CartTTLHours int    `env:"CART_TTL_HOURS" envDefault:"168"`

	// Redis
	RedisURL      string `env:"REDIS_URL"`
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPass     string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`

	// PostgreSQL holds the checkout attempt log. Leaving both POSTGRES_URL
	// and POSTGRES_HOST empty keeps the log in memory.
	PostgresURL  string `env:"POSTGRES_URL"`
	PostgresHost string `env:"POSTGRES_HOST"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:""`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"storefront"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"1"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`

	// Kafka. No brokers disables event publishing.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// Content store
	CatalogProjectID  string `env:"CATALOG_PROJECT_ID"`
	CatalogDataset    string `env:"CATALOG_DATASET" envDefault:"production"`
	CatalogAPIVersion string `env:"CATALOG_API_VERSION" envDefault:"2023-01-01"`
	CatalogUseCDN     bool   `env:"CATALOG_USE_CDN" envDefault:"true"`
	CatalogToken      string `env:"CATALOG_TOKEN"`
	CatalogBaseURL    string `env:"CATALOG_BASE_URL"`
	CatalogTimeoutSec int    `env:"CATALOG_TIMEOUT_SECONDS" envDefault:"10"`
	CatalogRetries    int    `env:"CATALOG_MAX_RETRIES" envDefault:"2"`
	CatalogMaxAgeSec  int    `env:"CATALOG_CACHE_MAX_AGE_SECONDS" envDefault:"60"`

	// Circuit breaker settings for content store calls
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Shipping policy in cents
	ShippingFreeThreshold int64 `env:"SHIPPING_FREE_THRESHOLD_CENTS" envDefault:"5000"`
	ShippingFlatFee       int64 `env:"SHIPPING_FLAT_FEE_CENTS" envDefault:"3000"`

	// Checkout
	CheckoutSubmitTimeout time.Duration `env:"CHECKOUT_SUBMIT_TIMEOUT" envDefault:"10s"`
	CheckoutRatePerMinute int           `env:"CHECKOUT_RATE_LIMIT_PER_MINUTE" envDefault:"10"`
	CheckoutRateBurst     int           `env:"CHECKOUT_RATE_LIMIT_BURST" envDefault:"3"`

	// Sessions. With a secret set, carts are keyed by a bearer token claim
	// instead of the X-Session-ID header.
	JWTSecret string `env:"JWT_SECRET"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.CartStore != CartStoreRedis && c.CartStore != CartStoreMemory {
		return fmt.Errorf("CART_STORE must be %q or %q, got %q", CartStoreRedis, CartStoreMemory, c.CartStore)
	}
	if c.CartTTLHours < 1 {
		return fmt.Errorf("CART_TTL_HOURS must be positive, got %d", c.CartTTLHours)
	}
	if c.CatalogProjectID == "" && c.CatalogBaseURL == "" {
		return fmt.Errorf("CATALOG_PROJECT_ID or CATALOG_BASE_URL is required")
	}
	if c.CatalogBaseURL != "" {
		if _, err := url.ParseRequestURI(c.CatalogBaseURL); err != nil {
			return fmt.Errorf("invalid CATALOG_BASE_URL %q: %w", c.CatalogBaseURL, err)
		}
	}
	if c.ShippingFreeThreshold < 0 || c.ShippingFlatFee < 0 {
		return fmt.Errorf("shipping amounts must not be negative")
	}
	if c.CheckoutSubmitTimeout <= 0 {
		return fmt.Errorf("CHECKOUT_SUBMIT_TIMEOUT must be positive, got %s", c.CheckoutSubmitTimeout)
	}
	if c.CheckoutRatePerMinute < 0 || c.CheckoutRateBurst < 0 {
		return fmt.Errorf("checkout rate limit must not be negative")
	}
	if c.CBFailureRatio <= 0 || c.CBFailureRatio > 1.0 {
		return fmt.Errorf("CB_FAILURE_RATIO must be in (0.0, 1.0], got %f", c.CBFailureRatio)
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// CartTTL returns how long an untouched cart is kept.
func (c *Config) CartTTL() time.Duration {
	return time.Duration(c.CartTTLHours) * time.Hour
}

// PostgresEnabled reports whether the attempt log is kept in PostgreSQL.
func (c *Config) PostgresEnabled() bool {
	return c.PostgresURL != "" || c.PostgresHost != ""
}

// KafkaEnabled reports whether domain events are published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Postgres returns the connection settings for the attempt log.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		URL:             c.PostgresURL,
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// Redis returns the connection settings for the cart store.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		URL:      c.RedisURL,
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPass,
		DB:       c.RedisDB,
		PoolSize: c.RedisPoolSize,
	}
}
