package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/user-service/internal/api/http"
	"github.com/spec-kit/user-service/internal/api/http/handlers"
	"github.com/spec-kit/user-service/internal/auth"
	"github.com/spec-kit/user-service/internal/cache"
	"github.com/spec-kit/user-service/internal/config"
	"github.com/spec-kit/user-service/internal/events"
	"github.com/spec-kit/user-service/internal/observability"
	"github.com/spec-kit/user-service/internal/persistence"
	"github.com/spec-kit/user-service/internal/repository"
	"github.com/spec-kit/user-service/internal/service"
	"github.com/spec-kit/user-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Tracing.Enabled {
		shutdownTracing, err := observability.SetupTracing(ctx, cfg.Tracing, cfg.App.Name, cfg.App.Version)
		if err != nil {
			logger.Warn("tracing disabled", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
				defer done()
				_ = shutdownTracing(shutdownCtx)
			}()
		}
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	if err != nil {
		logger.Fatal("failed to init token manager", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher()
	var publisher *events.KafkaPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.UserEventsTopic, logger)
		defer publisher.Close() //nolint:errcheck
	}
	worker.StartEventWorker(dispatcher, publisher, logger)

	userService := service.NewUserService(service.UserDependencies{
		UserRepo:      userRepo,
		AddressRepo:   repository.NewAddressRepository(pool),
		PhoneRepo:     repository.NewPhoneRepository(pool),
		Cache:         cache.NewUserCache(redis.Client, cfg.Redis.CacheTTL()),
		Dispatcher:    dispatcher,
		Tokens:        tokens,
		Authenticator: auth.NewCredentialAuthenticator(userRepo),
		BcryptCost:    cfg.Auth.BcryptCost,
		Logger:        logger,
	})

	metrics := observability.NewMetrics()
	authMiddleware := auth.NewAuthMiddleware(auth.NewIdentityResolver(tokens), logger, metrics)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:         logger,
		Metrics:        metrics,
		Timeout:        cfg.App.RequestTimeout(),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
		"postgres": pg,
		"redis":    redis,
	})
	usersHandler := handlers.NewUsersHandler(userService)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Users:          usersHandler,
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
