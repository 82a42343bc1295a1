package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront-catalog/pkg/database"
	"github.com/utafrali/storefront-catalog/pkg/health"
	"github.com/utafrali/storefront-catalog/pkg/httpclient"
	pkgkafka "github.com/utafrali/storefront-catalog/pkg/kafka"
	"github.com/utafrali/storefront-catalog/pkg/middleware"
	"github.com/utafrali/storefront-catalog/pkg/tracing"
	"github.com/utafrali/storefront-catalog/services/catalog/internal/catalog"
	"github.com/utafrali/storefront-catalog/services/catalog/internal/config"
	"github.com/utafrali/storefront-catalog/services/catalog/internal/event"
	handler "github.com/utafrali/storefront-catalog/services/catalog/internal/handler/http"
	"github.com/utafrali/storefront-catalog/services/catalog/internal/service"
	"github.com/utafrali/storefront-catalog/services/catalog/internal/snapshot"
	"github.com/utafrali/storefront-catalog/services/catalog/internal/transport/medusa"
)

const serviceName = "catalog"

// App wires together all dependencies and runs the catalog service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	service        *service.CatalogService
	redis          *redis.Client
	producer       *pkgkafka.Producer
	consumers      []*pkgkafka.Consumer
	httpServer     *http.Server
	tracerShutdown tracing.ShutdownFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracerConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	a := &App{
		cfg:            cfg,
		logger:         logger,
		tracerShutdown: tracerShutdown,
	}

	// Medusa store client with retry and circuit breaker.
	baseClient := httpclient.New(medusaClientConfig(cfg))
	cbCfg := httpclient.DefaultCircuitBreakerConfig("medusa-store")
	cbClient := httpclient.NewCircuitBreakerClient(baseClient, cbCfg, logger)

	fetcher, err := medusa.NewFetcher(cbClient, medusa.Config{
		BaseURL:        cfg.MedusaBaseURL,
		PublishableKey: cfg.MedusaPublishableKey,
		Limit:          cfg.MedusaPageLimit,
	}, logger)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("init medusa fetcher: %w", err), a.closeAll())
	}
	logger.Info("medusa fetcher initialized",
		slog.String("endpoint", fetcher.Endpoint()),
		slog.String("circuit_breaker", cbCfg.Name),
	)

	index := catalog.New(fetcher, catalog.Options{
		DefaultCategory: cfg.DefaultCategory,
		Locale:          cfg.LocaleTag(),
		SearchCacheSize: cfg.SearchCacheSize,
		Logger:          logger,
	})

	healthHandler := health.NewHandler()
	opts := service.Options{RefreshTimeout: cfg.RefreshTimeout}

	// Redis snapshot store.
	if cfg.SnapshotEnabled {
		redisCfg := database.DefaultRedisConfig()
		redisCfg.Addr, redisCfg.Password, redisCfg.DB = cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB
		client, err := database.NewRedisClient(ctx, redisCfg)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("connect to redis: %w", err), a.closeAll())
		}
		a.redis = client
		store := snapshot.NewStore(client, cfg.SnapshotKey, cfg.SnapshotTTL)
		opts.Snapshots = store
		healthHandler.RegisterNonCritical("redis", store.Ping)
		logger.Info("connected to Redis", slog.String("addr", cfg.RedisAddr))
	}

	// Kafka producer.
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		opts.Events = event.NewProducer(a.producer, logger)
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	a.service = service.NewCatalogService(index, opts, logger)
	healthHandler.RegisterCritical("catalog", a.service.Ready)

	// Kafka consumers for upstream product events.
	if cfg.KafkaEnabled {
		eventConsumer := event.NewConsumer(a.service, logger)
		for _, topic := range event.Topics {
			a.consumers = append(a.consumers, pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
				Brokers:  cfg.KafkaBrokers,
				GroupID:  cfg.KafkaGroupID,
				Topic:    topic,
				MinBytes: 1,
				MaxBytes: 10e6,
			}, eventConsumer.Handle, logger))
		}
		logger.Info("kafka consumers initialized",
			slog.String("group_id", cfg.KafkaGroupID),
			slog.Int("topic_count", len(event.Topics)),
		)
	}

	// HTTP router.
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = middleware.ParseOrigins(cfg.CORSAllowedOrigins)
	corsCfg.Environment = cfg.Environment

	routerCfg := handler.DefaultRouterConfig()
	routerCfg.ServiceName = serviceName
	routerCfg.CORS = corsCfg
	routerCfg.RefreshAuth = middleware.HMACValidator(cfg.JWTSecret)
	routerCfg.RefreshRoles = cfg.RefreshRoles
	routerCfg.RefreshRPS = cfg.RefreshRateLimitRPS
	routerCfg.RefreshBurst = cfg.RefreshRateBurst

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler.NewRouter(a.service, healthHandler, routerCfg, logger),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      max(15*time.Second, cfg.RefreshTimeout+5*time.Second),
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

func tracerConfig(cfg *config.Config) tracing.Config {
	tc := tracing.DefaultConfig(serviceName)
	tc.Environment = cfg.Environment
	tc.OTLPEndpoint = cfg.OTELEndpoint
	tc.SampleRate = cfg.TracingSampleRate
	tc.Enabled = cfg.TracingEnabled
	return tc
}

// medusaClientConfig keeps retry waits short so a refresh fits inside
// CATALOG_REFRESH_TIMEOUT.
func medusaClientConfig(cfg *config.Config) httpclient.Config {
	hc := httpclient.DefaultConfig()
	hc.Timeout = cfg.MedusaTimeout
	hc.MaxRetries = cfg.MedusaMaxRetries
	hc.RetryWaitMin = 200 * time.Millisecond
	hc.RetryWaitMax = 2 * time.Second
	hc.MaxConnsPerHost = 16
	return hc
}

// Run loads the first catalog, then starts the HTTP server, the refresh
// loop and the Kafka consumers. It blocks until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	a.initialLoad(ctx)

	errCh := make(chan error, 1+len(a.consumers))

	for _, c := range a.consumers {
		go func() {
			if err := c.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer %s: %w", c.Topic(), err)
			}
		}()
	}

	go runRefreshLoop(ctx, a.cfg.RefreshInterval, a.service.Refresh, a.logger)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

// initialLoad serves the stored snapshot if there is one and then fetches a
// fresh catalog. Neither failure is fatal: readiness stays down until a
// catalog is loaded and the refresh loop keeps trying.
func (a *App) initialLoad(ctx context.Context) {
	if _, err := a.service.WarmStart(ctx); err != nil {
		a.logger.WarnContext(ctx, "catalog warm start failed", slog.String("error", err.Error()))
	}
	if _, err := a.service.Refresh(ctx); err != nil {
		a.logger.WarnContext(ctx, "initial catalog refresh failed",
			slog.String("error", err.Error()),
			slog.Bool("ready", a.service.Ready(ctx) == nil),
		)
	}
}

// Shutdown gracefully stops all components in order: HTTP server, Kafka
// consumers, tracer, Kafka producer, Redis.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	if a.httpServer != nil {
		httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer httpCancel()
		if err := a.httpServer.Shutdown(httpCtx); err != nil {
			a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.closeAll(); err != nil {
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeAll releases the tracer, producer and Redis client.
func (a *App) closeAll() error {
	var errs []error

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

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
