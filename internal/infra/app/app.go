package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/core/port"
	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/infra/config"
	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/infra/database"
	kafkainfra "github.com/practiceaogoznak-del/C-ADDevProgramm/internal/infra/kafka"
	ldapinfra "github.com/practiceaogoznak-del/C-ADDevProgramm/internal/infra/ldap"
	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/infra/localos"
	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/infra/logger"
	redisinfra "github.com/practiceaogoznak-del/C-ADDevProgramm/internal/infra/redis"
	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/infra/smtp"
	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/infra/telemetry"
	postgresrepo "github.com/practiceaogoznak-del/C-ADDevProgramm/internal/repository/postgres"
	redisrepo "github.com/practiceaogoznak-del/C-ADDevProgramm/internal/repository/redis"
	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/transport/http/middleware"
	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/transport/http/routes"
	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/usecase"
)

type Application struct {
	cfg    *config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	pool   *pgxpool.Pool
	redis  *redisinfra.Client
	tracer *telemetry.TracerProvider
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	provider, err := telemetry.Attach(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	var tracer *telemetry.TracerProvider
	if cfg.Telemetry.Enabled {
		tracer, err = telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
		if err != nil {
			return nil, fmt.Errorf("init tracing: %w", err)
		}
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)

	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(kafkaProducer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	rateLimitWindow := cfg.RateLimit.WindowDuration
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Minute
	}
	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
		KeyPrefix: "accessmgr:rate-limit",
		TTL:       rateLimitWindow * 2,
	})
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	directory := ldapinfra.NewDirectory(cfg.LDAP, log)
	local := localos.NewIdentity()

	var notifier port.Notifier
	if cfg.SMTP.Enabled {
		notifier = smtp.NewNotifier(cfg.SMTP, log)
		log.Info("smtp notifier initialized",
			zap.String("host", cfg.SMTP.Host),
			zap.Int("port", cfg.SMTP.Port),
		)
	} else {
		log.Info("smtp disabled, composed notifications will be logged")
		notifier = smtp.NewLoggingNotifier(log)
	}

	catalogService := usecase.NewCatalogService(directory, local).WithLogger(log)
	ownerResolver := usecase.NewOwnerResolver(directory).
		WithLogger(log).
		WithTimeout(cfg.LDAP.OwnerLookupTimeout)
	submitService := usecase.NewSubmitService(catalogService, ownerResolver, notifier).
		WithLogger(log).
		WithRepositories(repos.Requests, repos.Drafts).
		WithEventPublisher(eventPublisher).
		WithOutcomeObserver(provider.CountSubmission)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Metrics:     metrics,
		Local:       local,
		Database:    pool,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Catalog: catalogService,
			Submit:  submitService,
		},
	})

	return &Application{
		cfg:    cfg,
		engine: engine,
		logger: log,
		pool:   pool,
		redis:  redisClient,
		tracer: tracer,
	}, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.tracer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = a.tracer.Shutdown(shutdownCtx)
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting access manager API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
