package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/firewatch/incident-service/internal/api/http"
	"github.com/firewatch/incident-service/internal/api/http/handlers"
	"github.com/firewatch/incident-service/internal/auth"
	"github.com/firewatch/incident-service/internal/config"
	"github.com/firewatch/incident-service/internal/events"
	"github.com/firewatch/incident-service/internal/observability"
	"github.com/firewatch/incident-service/internal/persistence"
	"github.com/firewatch/incident-service/internal/repository"
	"github.com/firewatch/incident-service/internal/service"
	"github.com/firewatch/incident-service/internal/session"
	"github.com/firewatch/incident-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
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

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	var incidentRepo repository.IncidentRepository
	switch cfg.Incidents.Backend {
	case "redis":
		incidentRepo = repository.NewIncidentRedisRepository(redis.Client)
	default:
		incidentRepo = repository.NewIncidentRepository(pg.PoolHandle())
	}

	stores := session.NewRedisStoreProvider(redis.Client, cfg.Session.CredentialKeyPrefix, cfg.Session.RevocationChannelName)
	policy := session.Policy{MaxAge: cfg.Session.MaxAge()}

	incidentService := service.NewIncidentService(incidentRepo, dispatcher)
	sessionService := service.NewSessionService(stores, dispatcher)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	guard := auth.NewGuardMiddleware(auth.GuardDependencies{
		Stores:     stores,
		Policy:     policy,
		LoginPath:  cfg.Session.LoginPath,
		Cookie:     cfg.Session.ContextCookie,
		Logger:     logger,
		Metrics:    metrics,
		Dispatcher: dispatcher,
	})

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Incidents: handlers.NewIncidentsHandler(incidentService),
		Admin:     handlers.NewAdminHandler(incidentService),
		Session: handlers.NewSessionHandler(handlers.SessionHandlerConfig{
			Sessions:  sessionService,
			Stores:    stores,
			Policy:    policy,
			Recheck:   cfg.Session.RecheckInterval(),
			LoginPath: cfg.Session.LoginPath,
			Cookie:    cfg.Session.ContextCookie,
			Logger:    logger,
		}),
		Guard: guard,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
