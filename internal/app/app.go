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
	goredis "github.com/redis/go-redis/v9"

	"github.com/utafrali/ReviewsGo/internal/catalog"
	"github.com/utafrali/ReviewsGo/internal/config"
	"github.com/utafrali/ReviewsGo/internal/event"
	handler "github.com/utafrali/ReviewsGo/internal/handler/http"
	"github.com/utafrali/ReviewsGo/internal/repository/postgres"
	redisrepo "github.com/utafrali/ReviewsGo/internal/repository/redis"
	"github.com/utafrali/ReviewsGo/internal/service"
	"github.com/utafrali/ReviewsGo/internal/storage/memory"
	"github.com/utafrali/ReviewsGo/migrations"
	"github.com/utafrali/ReviewsGo/pkg/database"
	"github.com/utafrali/ReviewsGo/pkg/health"
	"github.com/utafrali/ReviewsGo/pkg/httpclient"
	pkgkafka "github.com/utafrali/ReviewsGo/pkg/kafka"
	"github.com/utafrali/ReviewsGo/pkg/middleware"
	"github.com/utafrali/ReviewsGo/pkg/tracing"
	"github.com/utafrali/ReviewsGo/pkg/workflow"
)

// App wires together all dependencies and runs the reviews service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *goredis.Client
	producer       *pkgkafka.Producer
	orderCompleted *pkgkafka.Consumer
	dlq            *pkgkafka.DLQProducer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "reviews",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TracingSampleRate,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = cfg.PostgresHost
	pgCfg.Port = cfg.PostgresPort
	pgCfg.User = cfg.PostgresUser
	pgCfg.Password = cfg.PostgresPass
	pgCfg.DBName = cfg.PostgresDB
	pgCfg.SSLMode = cfg.PostgresSSL

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	prometheus.MustRegister(database.NewPoolStatsCollector(pool, "reviews"))

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Redis backs the duplicate-submission guard.
	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort)))

	// Kafka producer for review lifecycle events.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	if err := producer.Ping(ctx); err != nil {
		logger.Warn("kafka producer ping failed, continuing in degraded mode",
			slog.String("error", err.Error()),
		)
	} else {
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Build the dependency graph.
	reviewRepo := postgres.NewReviewRepository(pool)
	imageRepo := postgres.NewImageRepository(pool)
	requestRepo := postgres.NewRequestRepository(pool)
	guard := redisrepo.NewSubmissionGuard(redisClient, cfg.SubmitWindow, logger)
	store := memory.New(cfg.StorageBaseURL)
	eventProducer := event.NewProducer(producer, logger)
	runner := workflow.NewRunner(logger)

	verifier := newVerifier(cfg, logger)

	reviewService := service.NewReviewService(
		reviewRepo, imageRepo, requestRepo,
		guard, verifier, eventProducer,
		runner, logger,
	)
	moderationService := service.NewModerationService(
		reviewRepo, imageRepo, store,
		eventProducer, runner, logger,
	)
	uploadService := service.NewUploadService(
		reviewRepo, imageRepo, store,
		runner, logger,
	)

	// Consume completed orders to solicit reviews.
	var (
		orderCompleted *pkgkafka.Consumer
		dlq            *pkgkafka.DLQProducer
	)
	if cfg.ConsumerEnabled {
		orderHandler := event.NewOrderCompletedHandler(requestRepo, logger)
		idempotencyStore := pkgkafka.NewMemoryIdempotencyStore(24 * time.Hour)
		dlq = pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)

		orderCompleted = pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  event.ConsumerGroup,
			Topic:    event.TopicOrderCompleted,
			MinBytes: 1,
			MaxBytes: 10e6,
		}, pkgkafka.IdempotentHandler(idempotencyStore, orderHandler.Handle, logger), logger).WithDLQ(dlq)
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	// HTTP router.
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	corsCfg.Environment = cfg.Environment

	router := handler.NewRouter(
		reviewService, moderationService, uploadService,
		healthHandler, logger,
		handler.RouterConfig{
			CORS:           corsCfg,
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
		},
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		producer:       producer,
		orderCompleted: orderCompleted,
		dlq:            dlq,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// newVerifier returns the product verifier: a circuit-broken HTTP client when
// a catalog URL is configured, otherwise a no-op that accepts everything.
func newVerifier(cfg *config.Config, logger *slog.Logger) catalog.Verifier {
	if cfg.CatalogURL == "" {
		logger.Info("no catalog service configured, product verification disabled")
		return catalog.NoopVerifier{}
	}

	clientCfg := httpclient.DefaultConfig()
	clientCfg.UserAgent = "reviews-service/0.1.0"
	client := httpclient.New(clientCfg)
	breaker := httpclient.NewCircuitBreakerClient(client, httpclient.DefaultCircuitBreakerConfig("catalog"), logger)

	return catalog.NewClient(breaker, cfg.CatalogURL, logger)
}

// Run starts the HTTP server and the Kafka consumer, then blocks until the
// context is canceled or a component fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if a.orderCompleted != nil {
		go func() {
			if err := a.orderCompleted.Start(ctx); err != nil {
				errCh <- fmt.Errorf("order completed consumer: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components: HTTP first so in-flight requests
// drain, then the tracer so their spans flush, then messaging and storage.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.orderCompleted != nil {
		if err := a.orderCompleted.Close(); err != nil {
			a.logger.Error("order completed consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("dlq producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
