package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setEnvs sets the minimum environment for a valid config plus any overrides.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	t.Setenv("CATALOG_PROJECT_ID", "abc123")
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setEnvs(t, nil)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, CartStoreRedis, cfg.CartStore)
	assert.Equal(t, 168*time.Hour, cfg.CartTTL())
	assert.Equal(t, "production", cfg.CatalogDataset)
	assert.Equal(t, "2023-01-01", cfg.CatalogAPIVersion)
	assert.True(t, cfg.CatalogUseCDN)
	assert.Equal(t, int64(5000), cfg.ShippingFreeThreshold)
	assert.Equal(t, int64(3000), cfg.ShippingFlatFee)
	assert.Equal(t, 10*time.Second, cfg.CheckoutSubmitTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.PostgresEnabled())
	assert.False(t, cfg.KafkaEnabled())
}

func TestLoad_FromEnvVars(t *testing.T) {
	setEnvs(t, map[string]string{
		"HTTP_PORT":                     "9090",
		"CART_STORE":                    "memory",
		"CART_TTL_HOURS":                "2",
		"POSTGRES_HOST":                 "db",
		"KAFKA_BROKERS":                 "k1:9092,k2:9092",
		"SHIPPING_FREE_THRESHOLD_CENTS": "7500",
		"SHIPPING_FLAT_FEE_CENTS":       "499",
		"CHECKOUT_SUBMIT_TIMEOUT":       "3s",
		"CORS_ALLOWED_ORIGINS":          "https://a.example,https://b.example",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, CartStoreMemory, cfg.CartStore)
	assert.Equal(t, 2*time.Hour, cfg.CartTTL())
	assert.True(t, cfg.PostgresEnabled())
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, int64(7500), cfg.ShippingFreeThreshold)
	assert.Equal(t, int64(499), cfg.ShippingFlatFee)
	assert.Equal(t, 3*time.Second, cfg.CheckoutSubmitTimeout)
	assert.Len(t, cfg.CORSAllowedOrigins, 2)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		envs map[string]string
		want string
	}{
		{"port zero", map[string]string{"HTTP_PORT": "0"}, "invalid HTTP port"},
		{"port too high", map[string]string{"HTTP_PORT": "70000"}, "invalid HTTP port"},
		{"unknown cart store", map[string]string{"CART_STORE": "disk"}, "CART_STORE"},
		{"non-positive ttl", map[string]string{"CART_TTL_HOURS": "0"}, "CART_TTL_HOURS"},
		{"bad base url", map[string]string{"CATALOG_BASE_URL": "not a url"}, "CATALOG_BASE_URL"},
		{"negative fee", map[string]string{"SHIPPING_FLAT_FEE_CENTS": "-1"}, "shipping"},
		{"zero submit timeout", map[string]string{"CHECKOUT_SUBMIT_TIMEOUT": "0s"}, "CHECKOUT_SUBMIT_TIMEOUT"},
		{"failure ratio", map[string]string{"CB_FAILURE_RATIO": "1.5"}, "CB_FAILURE_RATIO"},
		{"short jwt secret", map[string]string{"JWT_SECRET": "short"}, "JWT_SECRET"},
		{"sample rate", map[string]string{"OTEL_SAMPLE_RATE": "2"}, "OTEL_SAMPLE_RATE"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setEnvs(t, tc.envs)

			cfg, err := Load()

			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoad_CatalogRequired(t *testing.T) {
	t.Setenv("CATALOG_PROJECT_ID", "")
	t.Setenv("CATALOG_BASE_URL", "")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "CATALOG_PROJECT_ID")
}

func TestLoad_BaseURLWithoutProject(t *testing.T) {
	t.Setenv("CATALOG_PROJECT_ID", "")
	t.Setenv("CATALOG_BASE_URL", "http://localhost:3333")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3333", cfg.CatalogBaseURL)
}

func TestLoad_InvalidType(t *testing.T) {
	setEnvs(t, map[string]string{"CHECKOUT_SUBMIT_TIMEOUT": "soon"})

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "load storefront config")
}

func TestPostgres(t *testing.T) {
	setEnvs(t, map[string]string{
		"POSTGRES_HOST":     "db.internal",
		"POSTGRES_PASSWORD": "secret",
		"DB_MAX_CONNS":      "4",
	})

	cfg, err := Load()
	require.NoError(t, err)

	pg := cfg.Postgres()
	assert.Equal(t, "db.internal", pg.Host)
	assert.Equal(t, 5432, pg.Port)
	assert.Equal(t, int32(4), pg.MaxConns)
	assert.Equal(t, time.Hour, pg.MaxConnLifetime)
	assert.Contains(t, pg.DSN(), "db.internal:5432/storefront")
}

func TestRedis(t *testing.T) {
	setEnvs(t, map[string]string{"REDIS_HOST": "cache", "REDIS_DB": "2"})

	cfg, err := Load()
	require.NoError(t, err)

	rc := cfg.Redis()
	assert.Equal(t, "cache:6379", rc.Addr())
	assert.Equal(t, 2, rc.DB)
	assert.Equal(t, 20, rc.PoolSize)
}
