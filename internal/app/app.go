package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/foodtuck/storefront/internal/catalog"
	"github.com/foodtuck/storefront/internal/config"
	"github.com/foodtuck/storefront/internal/domain"
	"github.com/foodtuck/storefront/internal/event"
	handler "github.com/foodtuck/storefront/internal/handler/http"
	"github.com/foodtuck/storefront/internal/repository"
	"github.com/foodtuck/storefront/internal/repository/memory"
	"github.com/foodtuck/storefront/internal/repository/postgres"
	redisrepo "github.com/foodtuck/storefront/internal/repository/redis"
	"github.com/foodtuck/storefront/internal/service"
	"github.com/foodtuck/storefront/migrations"
	"github.com/foodtuck/storefront/pkg/database"
	"github.com/foodtuck/storefront/pkg/health"
	"github.com/foodtuck/storefront/pkg/httpclient"
	pkgkafka "github.com/foodtuck/storefront/pkg/kafka"
	"github.com/foodtuck/storefront/pkg/middleware"
	"github.com/foodtuck/storefront/pkg/tracing"
)

const serviceName = "storefront"

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	pool           *pgxpool.Pool
	producer       *pkgkafka.Producer
	limiter        *middleware.RateLimiter
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
// Redis, PostgreSQL and Kafka are optional; without them carts and the
// attempt log live in memory and events are dropped.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		Insecure:       true,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	healthHandler := health.NewHandler()

	carts, err := a.initCartStore(ctx, healthHandler)
	if err != nil {
		_ = a.Shutdown()
		return nil, err
	}

	attempts, err := a.initAttemptStore(ctx, healthHandler)
	if err != nil {
		_ = a.Shutdown()
		return nil, err
	}

	// Initialize Kafka producer. A nil publisher makes the event producer
	// drop events.
	var publisher event.Publisher
	if cfg.KafkaEnabled() {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = a.producer
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Warn("KAFKA_BROKERS not set, domain events are disabled")
	}
	eventProducer := event.NewProducer(publisher, logger)

	// Content store client with circuit breaker.
	baseClient := httpclient.New(httpclient.Config{
		Timeout:         time.Duration(cfg.CatalogTimeoutSec) * time.Second,
		MaxRetries:      cfg.CatalogRetries,
		RetryWaitMin:    200 * time.Millisecond,
		RetryWaitMax:    2 * time.Second,
		MaxConnsPerHost: 50,
		UserAgent:       "foodtuck-storefront",
	})
	cbCfg := httpclient.CircuitBreakerConfig{
		Name:         "catalog",
		MaxRequests:  cfg.CBMaxRequests,
		Interval:     time.Duration(cfg.CBInterval) * time.Second,
		Timeout:      time.Duration(cfg.CBTimeout) * time.Second,
		FailureRatio: cfg.CBFailureRatio,
		MinRequests:  cfg.CBMinRequests,
	}
	cbClient := httpclient.NewCircuitBreakerClient(baseClient, cbCfg, logger)
	logger.Info("circuit breaker initialized",
		slog.String("name", cbCfg.Name),
		slog.Uint64("max_requests", uint64(cbCfg.MaxRequests)),
		slog.Int("timeout_seconds", cfg.CBTimeout),
		slog.Uint64("min_requests", uint64(cbCfg.MinRequests)),
	)

	catalogClient := catalog.NewClient(cbClient, catalog.Config{
		ProjectID:  cfg.CatalogProjectID,
		Dataset:    cfg.CatalogDataset,
		APIVersion: cfg.CatalogAPIVersion,
		UseCDN:     cfg.CatalogUseCDN,
		Token:      cfg.CatalogToken,
		BaseURL:    cfg.CatalogBaseURL,
	}, logger)
	if cfg.CatalogToken == "" {
		logger.Warn("CATALOG_TOKEN not set, checkout submissions will be rejected")
	}
	healthHandler.RegisterNonCritical("catalog", catalogClient.Ping)

	// Build the dependency graph.
	policy := domain.ShippingPolicy{
		FreeThreshold: cfg.ShippingFreeThreshold,
		FlatFee:       cfg.ShippingFlatFee,
	}
	catalogService := service.NewCatalogService(catalogClient, logger)
	cartService := service.NewCartService(carts, catalogService, eventProducer, policy, logger, cfg.CartTTL())
	checkoutService := service.NewCheckoutService(
		cartService,
		catalogClient,
		attempts,
		eventProducer,
		policy,
		logger,
		cfg.CheckoutSubmitTimeout,
	)

	// Session identity.
	session := middleware.SessionHeader("X-Session-ID")
	if cfg.JWTSecret != "" {
		session = middleware.Auth(middleware.HS256Validator(cfg.JWTSecret))
		logger.Info("bearer token sessions enabled")
	}

	if cfg.CheckoutRatePerMinute > 0 {
		a.limiter = middleware.NewRateLimiter(cfg.CheckoutRatePerMinute, cfg.CheckoutRateBurst, middleware.KeyBySession, logger)
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins

	// HTTP router.
	router := handler.NewRouter(cartService, checkoutService, catalogService, healthHandler, logger, handler.RouterConfig{
		Session:         session,
		CheckoutLimiter: a.limiter,
		CatalogMaxAge:   cfg.CatalogMaxAgeSec,
		CORS:            cors,
		PprofCIDRs:      cfg.PprofAllowedCIDRs,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// initCartStore connects the configured cart backend.
func (a *App) initCartStore(ctx context.Context, hh *health.Handler) (repository.CartRepository, error) {
	if a.cfg.CartStore == config.CartStoreMemory {
		a.logger.Warn("using in-memory cart store, carts are lost on restart")
		return memory.NewCartRepository(), nil
	}

	rcfg := a.cfg.Redis()
	rdb, err := database.NewRedisClient(ctx, rcfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.rdb = rdb
	a.logger.Info("connected to Redis",
		slog.String("addr", rcfg.Addr()),
		slog.Int("db", rcfg.DB),
	)
	hh.RegisterCritical("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	return redisrepo.NewCartRepository(rdb, a.cfg.CartTTL()), nil
}

// initAttemptStore connects the checkout attempt log and applies migrations.
func (a *App) initAttemptStore(ctx context.Context, hh *health.Handler) (repository.AttemptRepository, error) {
	if !a.cfg.PostgresEnabled() {
		a.logger.Warn("POSTGRES_HOST not set, checkout attempts are kept in memory")
		return memory.NewAttemptRepository(), nil
	}

	pgCfg := a.cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	a.logger.Info("connected to PostgreSQL",
		slog.String("host", pgCfg.Host),
		slog.Int("port", pgCfg.Port),
		slog.String("database", pgCfg.DBName),
	)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
		a.logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	if err := database.RunMigrations(ctx, pool, migrations.FS, a.logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	a.logger.Info("database migrations completed")

	if a.cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(a.cfg.SlowQueryThresholdMs)*time.Millisecond, a.logger)
	}

	hh.RegisterCritical("postgres", pool.Ping)
	return postgres.NewAttemptRepository(pool), nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return errors.Join(err, a.Shutdown())
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order: HTTP server, tracer,
// Kafka producer, then the stores. Components that were never started are
// skipped.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	if a.httpServer != nil {
		httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer httpCancel()
		if err := a.httpServer.Shutdown(httpCtx); err != nil {
			a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.limiter != nil {
		a.limiter.Stop()
	}

	// Flush spans after the HTTP drain so in-flight request spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.pool != nil {
		a.pool.Close()
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
