package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/ai"
	httptransport "github.com/spec-kit/sla-engine/internal/api/http"
	"github.com/spec-kit/sla-engine/internal/api/http/handlers"
	"github.com/spec-kit/sla-engine/internal/auth"
	"github.com/spec-kit/sla-engine/internal/config"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/observability"
	"github.com/spec-kit/sla-engine/internal/persistence"
	"github.com/spec-kit/sla-engine/internal/repository"
	"github.com/spec-kit/sla-engine/internal/routing"
	"github.com/spec-kit/sla-engine/internal/service"
	"github.com/spec-kit/sla-engine/internal/sla"
	"github.com/spec-kit/sla-engine/internal/worker"
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

	metrics := observability.NewMetrics()

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

	pool := pg.PoolHandle()
	policyRepo := repository.NewPolicyRepository(pool)
	instanceRepo := repository.NewInstanceRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	customerRepo := repository.NewCustomerRepository(pool)
	agentRepo := repository.NewAgentRepository(pool)

	dispatcher := events.NewInMemoryDispatcher(logger)
	broadcaster := events.NewBroadcaster(redis, logger, metrics)
	broadcaster.Register(dispatcher)

	notificationService := service.NewNotificationService(dispatcher, agentRepo, logger, metrics, cfg.Notification)
	notificationService.RegisterHandlers()

	policyService := service.NewPolicyService(service.PolicyDependencies{
		PolicyRepo:   policyRepo,
		InstanceRepo: instanceRepo,
		TicketRepo:   ticketRepo,
		CustomerRepo: customerRepo,
		Calendar:     sla.NewCalendar(),
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	lifecycleService := service.NewLifecycleService(instanceRepo, dispatcher, logger)

	scanner := worker.NewBreachScanner(worker.ScannerDependencies{
		InstanceRepo: instanceRepo,
		TicketRepo:   ticketRepo,
		Dispatcher:   dispatcher,
		Logger:       logger,
		Metrics:      metrics,
		Interval:     cfg.Scanner.Interval(),
		BatchLimit:   cfg.Scanner.BatchLimit,
	})
	scanner.Start(ctx)

	analyzer := ai.NewKeywordAnalyzer()
	scorer := routing.NewScorer(agentRepo, customerRepo, analyzer, logger)
	recommender := routing.NewRecommender(scorer, logger)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTLMinutes)
	tenantMiddleware := auth.NewTenantMiddleware(tokenManager)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:           handlers.NewHealthHandler(pg, redis),
		Policies:         handlers.NewPoliciesHandler(policyService),
		SLA:              handlers.NewSLAHandler(policyService, lifecycleService, scanner),
		Routing:          handlers.NewRoutingHandler(recommender, cfg.Routing.DefaultSuggestionLimit),
		TenantMiddleware: tenantMiddleware,
		Metrics:          metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
