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

	httptransport "github.com/spec-kit/provisioning-service/internal/api/http"
	"github.com/spec-kit/provisioning-service/internal/api/http/handlers"
	"github.com/spec-kit/provisioning-service/internal/auth"
	"github.com/spec-kit/provisioning-service/internal/browser"
	"github.com/spec-kit/provisioning-service/internal/config"
	"github.com/spec-kit/provisioning-service/internal/events"
	"github.com/spec-kit/provisioning-service/internal/observability"
	"github.com/spec-kit/provisioning-service/internal/persistence"
	"github.com/spec-kit/provisioning-service/internal/repository"
	"github.com/spec-kit/provisioning-service/internal/roles"
	"github.com/spec-kit/provisioning-service/internal/service"
	"github.com/spec-kit/provisioning-service/internal/storage"
	"github.com/spec-kit/provisioning-service/internal/validation"
	"github.com/spec-kit/provisioning-service/internal/worker"
	"github.com/spec-kit/provisioning-service/internal/workflow"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Name)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var runRepo repository.RunRepository
	if pg.Enabled() {
		runRepo = repository.NewRunRepository(pg.PoolHandle())
	} else {
		runRepo = repository.NewMemoryRunRepository()
	}

	artifacts, err := storage.NewArtifactStore(ctx, cfg.Artifacts, logger)
	if err != nil {
		logger.Fatal("failed to init artifact store", zap.Error(err))
	}
	if artifacts != nil {
		defer artifacts.Close() //nolint:errcheck
	}

	var publisher service.EventPublisher
	if cfg.AMQP.URL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Queue)
		if err != nil {
			logger.Fatal("failed to connect rabbitmq", zap.Error(err))
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
		logger.Info("outcome events published to rabbitmq", zap.String("queue", cfg.AMQP.Queue))
	}

	eventWorker := worker.NewEventWorker(events.NewInMemoryDispatcher(), 256, logger)
	worker.StartNotificationWorker(eventWorker, service.NewNotificationService(eventWorker, publisher, logger))

	launcher, err := browser.NewPlaywrightLauncher(browser.PlaywrightOptions{
		Headless:      cfg.Browser.Headless,
		ActionTimeout: cfg.Browser.ActionTimeout,
	}, logger)
	if err != nil {
		logger.Fatal("failed to start browser driver", zap.Error(err))
	}
	browserPool := browser.NewPool(launcher, cfg.Browser.MaxSessions, cfg.Browser.AdmissionWait, logger)

	engineOpts := []workflow.Option{workflow.WithLogger(logger)}
	if artifacts != nil {
		engineOpts = append(engineOpts, workflow.WithArtifacts(artifacts))
	}
	engine := workflow.NewEngine(workflow.Config{
		LoginURL:           cfg.Upstream.LoginURL(),
		EmployeeCreateURL:  cfg.Upstream.EmployeeCreateURL(),
		LoginEmail:         cfg.Upstream.LoginEmail,
		LoginPassword:      cfg.Upstream.LoginPassword,
		MSOEntryText:       cfg.Upstream.MSOEntryText,
		MSOLinkName:        cfg.Upstream.MSOLinkName,
		MarkerTimeout:      cfg.Browser.MarkerTimeout,
		MarkerPollInterval: cfg.Browser.MarkerPollInterval,
	}, browserPool, engineOpts...)

	metrics := observability.NewMetrics()
	roleResolver := roles.Default()
	provisioningService := service.NewProvisioningService(service.ProvisioningDependencies{
		Validator:  validation.New(roleResolver),
		Roles:      roleResolver,
		Runner:     engine,
		Runs:       runRepo,
		Locker:     redis,
		LockTTL:    cfg.Redis.LockTTL,
		Dispatcher: eventWorker,
		Metrics:    metrics,
		Logger:     logger,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Minute,
		WriteTimeout: cfg.App.RequestTimeout() + time.Minute,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	var postgresCheck, redisCheck handlers.Pinger
	if pg.Enabled() {
		postgresCheck = pg
	}
	if redis.Client != nil {
		redisCheck = redis
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:       handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, postgresCheck, redisCheck, browserPool),
		Provisioning: handlers.NewProvisioningHandler(provisioningService),
		Metrics:      handlers.NewMetricsHandler(metrics),
		APIKey:       auth.NewAPIKeyAuth(cfg.Auth),
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := eventWorker.Stop(stopCtx); err != nil {
		logger.Warn("event worker did not drain", zap.Error(err))
	}
	if err := launcher.Stop(); err != nil {
		logger.Warn("browser driver stop", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
