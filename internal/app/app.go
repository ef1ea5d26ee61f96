package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/wayfarelab/wayfare/internal/auth"
	"github.com/wayfarelab/wayfare/internal/cache"
	"github.com/wayfarelab/wayfare/internal/config"
	"github.com/wayfarelab/wayfare/internal/event"
	handler "github.com/wayfarelab/wayfare/internal/handler/http"
	"github.com/wayfarelab/wayfare/internal/repository/postgres"
	"github.com/wayfarelab/wayfare/internal/service"
	"github.com/wayfarelab/wayfare/internal/storage"
	"github.com/wayfarelab/wayfare/internal/storage/blob"
	"github.com/wayfarelab/wayfare/internal/storage/memory"
	"github.com/wayfarelab/wayfare/migrations"
	"github.com/wayfarelab/wayfare/pkg/database"
	"github.com/wayfarelab/wayfare/pkg/health"
	pkgkafka "github.com/wayfarelab/wayfare/pkg/kafka"
	"github.com/wayfarelab/wayfare/pkg/middleware"
	"github.com/wayfarelab/wayfare/pkg/tracing"
)

// App wires together all dependencies and runs the service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redisClient    *redis.Client
	producer       *pkgkafka.Producer
	reaper         *service.SessionReaper
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "wayfare",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.DBHost),
		slog.Int("port", cfg.DBPort),
		slog.String("database", cfg.DBName),
	)
	database.RegisterPoolMetrics(pool, "wayfare")

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Redis is optional; without it the unread count cache just misses.
	var redisClient *redis.Client
	if cfg.RedisEnabled {
		redisClient, err = database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()))
	}

	// Kafka is optional too; a nil producer makes publishes no-ops.
	var kafkaProducer *pkgkafka.Producer
	if cfg.KafkaEnabled {
		kafkaProducer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	var store storage.Store
	if cfg.BlobStoreURL != "" {
		store = blob.NewStore(cfg.BlobStoreURL, logger)
	} else {
		store = memory.NewStore("/media")
		logger.Warn("no blob store configured, using in-memory media storage")
	}

	// Build the dependency graph.
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTRefreshSecret)

	userRepo := postgres.NewUserRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)
	vacationRepo := postgres.NewVacationRepository(pool)
	activityRepo := postgres.NewActivityRepository(pool)
	memoryRepo := postgres.NewMemoryRepository(pool)
	postRepo := postgres.NewPostRepository(pool)
	friendshipRepo := postgres.NewFriendshipRepository(pool)
	notificationRepo := postgres.NewNotificationRepository(pool)
	groupRepo := postgres.NewGroupRepository(pool)
	statsRepo := postgres.NewStatsRepository(pool)

	eventProducer := event.NewProducer(kafkaProducer, logger)
	unreadCache := cache.NewUnreadCache(redisClient, cfg.UnreadCacheTTL, logger)

	notificationService := service.NewNotificationService(notificationRepo, unreadCache, logger)
	authService := service.NewAuthService(userRepo, sessionRepo, tokens, eventProducer, logger)
	profileService := service.NewProfileService(userRepo, friendshipRepo, store, logger)
	vacationService := service.NewVacationService(vacationRepo, userRepo, notificationService, eventProducer, logger)
	activityService := service.NewActivityService(activityRepo, userRepo, vacationService, logger)
	memoryService := service.NewMemoryService(memoryRepo, userRepo, vacationService, store, eventProducer, logger)
	postService := service.NewPostService(postRepo, userRepo, vacationService, eventProducer, logger)
	friendService := service.NewFriendService(friendshipRepo, userRepo, notificationService, eventProducer, logger)
	groupService := service.NewGroupService(groupRepo, logger)
	adminService := service.NewAdminService(userRepo, statsRepo, logger)

	reaper, err := service.NewSessionReaper(sessionRepo, cfg.SessionReapSpec, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if redisClient != nil {
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	if kafkaProducer != nil {
		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return kafkaProducer.Ping(ctx)
		})
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	corsCfg.AllowCredentials = true
	corsCfg.Environment = cfg.Environment

	router := handler.NewRouter(
		handler.Services{
			Auth:          authService,
			Profile:       profileService,
			Vacations:     vacationService,
			Activities:    activityService,
			Memories:      memoryService,
			Posts:         postService,
			Friends:       friendService,
			Notifications: notificationService,
			Groups:        groupService,
			Admin:         adminService,
		},
		tokens,
		userRepo,
		healthHandler,
		handler.RouterConfig{
			Production:     cfg.IsProduction(),
			CORS:           corsCfg,
			AuthRateRPS:    cfg.AuthRateRPS,
			AuthRateBurst:  cfg.AuthRateBurst,
			MaxUploadBytes: cfg.MaxUploadBytes,
		},
		logger,
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
		redisClient:    redisClient,
		producer:       kafkaProducer,
		reaper:         reaper,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and the session reaper, blocking until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	a.reaper.Start()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components: HTTP server first so in-flight
// requests drain, then the reaper, tracer, Kafka, Redis and the pool.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.reaper.Stop()

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

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
