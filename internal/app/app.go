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
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/utafrali/marketplace/internal/auth"
	"github.com/utafrali/marketplace/internal/config"
	"github.com/utafrali/marketplace/internal/event"
	handler "github.com/utafrali/marketplace/internal/handler/http"
	"github.com/utafrali/marketplace/internal/repository/postgres"
	"github.com/utafrali/marketplace/internal/repository/redis"
	"github.com/utafrali/marketplace/internal/service"
	"github.com/utafrali/marketplace/migrations"
	"github.com/utafrali/marketplace/pkg/database"
	"github.com/utafrali/marketplace/pkg/health"
	pkgkafka "github.com/utafrali/marketplace/pkg/kafka"
	"github.com/utafrali/marketplace/pkg/middleware"
	"github.com/utafrali/marketplace/pkg/tracing"
)

// App wires together all dependencies and runs the marketplace service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *goredis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown tracing.Shutdown
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.closeBackends()
		}
	}()

	// Initialize OpenTelemetry tracing.
	if a.tracerShutdown, err = tracing.Init(ctx, cfg.Tracing); err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	if a.pool, err = database.NewPostgresPool(ctx, &cfg.Postgres, logger); err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.Postgres.Host),
		slog.Int("port", cfg.Postgres.Port),
		slog.String("database", cfg.Postgres.DBName),
	)

	// Run database migrations.
	if err = database.RunMigrations(ctx, a.pool, migrations.FS, logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Initialize Redis.
	if a.redis, err = database.NewRedisClient(ctx, cfg.Redis); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.Redis.Addr()))

	// Metrics registry.
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		database.NewPoolStatsCollector(a.pool, config.ServiceName),
	)

	// Initialize Kafka producer.
	a.producer = pkgkafka.NewProducer(cfg.Kafka, reg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.Kafka.Brokers))

	// Build the dependency graph.
	queryTracer := database.NewQueryTracer(cfg.SlowQueryThreshold(), logger)
	productRepo := postgres.NewProductRepository(a.pool, queryTracer)
	marketRepo := postgres.NewMarketRepository(a.pool, queryTracer)
	tokenStore := redis.NewExchangeTokenStore(a.redis)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	eventProducer := event.NewProducer(a.producer, logger)

	productService := service.NewProductService(productRepo, eventProducer, logger, cfg.ProductDefaultImage)
	authService := service.NewAuthService(marketRepo, tokenStore, jwtManager, eventProducer, logger, service.AuthConfig{
		BcryptCost:       cfg.BcryptCost,
		ExchangeTokenTTL: cfg.ExchangeTokenTTL,
	})

	authLimiter, err := middleware.NewRateLimiter(cfg.AuthRateLimit, logger)
	if err != nil {
		return nil, fmt.Errorf("auth rate limiter: %w", err)
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", a.pool.Ping)
	healthHandler.RegisterCritical("redis", database.RedisChecker(a.redis))
	healthHandler.RegisterNonCritical("kafka", a.producer.Ping)

	// HTTP router.
	router := handler.NewRouter(handler.RouterDeps{
		Products:       productService,
		Auth:           authService,
		PasswordPolicy: cfg.PasswordPolicy,
		TokenValidator: jwtManager.Validator(),
		AuthRateLimit:  authLimiter,
		Health:         healthHandler,
		Metrics:        middleware.NewHTTPMetrics(reg, config.ServiceName),
		Gatherer:       reg,
		Logger:         logger,
	})

	a.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
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

// Shutdown gracefully stops all components in order: the HTTP server drains
// first so in-flight request spans and events are flushed before the tracer,
// Kafka producer, Redis client and PostgreSQL pool close.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.HTTPShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.closeBackends(); err != nil {
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

func (a *App) closeBackends() error {
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

	if a.pool != nil {
		a.pool.Close()
	}

	return errors.Join(errs...)
}
