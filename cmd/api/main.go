package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	apihttp "github.com/spec-kit/property-service/internal/api/http"
	"github.com/spec-kit/property-service/internal/auth"
	"github.com/spec-kit/property-service/internal/config"
	"github.com/spec-kit/property-service/internal/events"
	"github.com/spec-kit/property-service/internal/observability"
	"github.com/spec-kit/property-service/internal/persistence"
	"github.com/spec-kit/property-service/internal/repository"
	"github.com/spec-kit/property-service/internal/scheduler"
	"github.com/spec-kit/property-service/internal/service"
	"github.com/spec-kit/property-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	postgres, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("postgres connection failed", zap.Error(err))
	}
	defer postgres.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, postgres.PoolHandle(), logger); err != nil {
			logger.Fatal("migrations failed", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	pool := postgres.PoolHandle()
	issueRepo := repository.NewIssueRepository(pool)
	workerRepo := repository.NewWorkerRepository(pool)
	residentRepo := repository.NewResidentRepository(pool)
	communityRepo := repository.NewCommunityRepository(pool)
	historyRepo := repository.NewIssueHistoryRepository(pool)

	clock := service.SystemClock()
	assigner := service.NewAssignmentService(service.AssignmentDependencies{
		IssueRepo:   issueRepo,
		WorkerRepo:  workerRepo,
		HistoryRepo: historyRepo,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	issueService := service.NewIssueService(service.IssueDependencies{
		IssueRepo:     issueRepo,
		WorkerRepo:    workerRepo,
		CommunityRepo: communityRepo,
		HistoryRepo:   historyRepo,
		Duplicates:    service.NewDuplicateDetector(issueRepo, clock),
		Assigner:      assigner,
		Dispatcher:    dispatcher,
		Metrics:       metrics,
		Logger:        logger,
		Clock:         clock,
	})
	workerService := service.NewWorkerService(workerRepo, communityRepo, logger)
	escalationService := service.NewEscalationService(service.EscalationDependencies{
		IssueRepo:   issueRepo,
		Assigner:    assigner,
		HistoryRepo: historyRepo,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
		Clock:       clock,
		Config:      cfg.Escalation,
	})

	worker.StartNotificationWorker(dispatcher, cfg.Notification, logger)

	sched := scheduler.New(redis, logger)
	worker.RegisterEscalationSweeps(sched, escalationService, cfg.Escalation)
	sched.Start(ctx)
	defer sched.Stop()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret)
	authMw := auth.NewAuthMiddleware(tokens, residentRepo, workerRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.App.RequestTimeout(),
		WriteTimeout: cfg.App.RequestTimeout(),
		ErrorHandler: apihttp.NewErrorHandler(logger, metrics),
	})
	app.Use(fiberrecover.New())
	app.Use(observability.RequestLogger(logger, metrics))

	apihttp.RegisterRoutes(app, authMw, apihttp.Handlers{
		Issues:        apihttp.NewIssuesHandler(issueService),
		WorkerIssues:  apihttp.NewWorkerIssuesHandler(issueService),
		ManagerIssues: apihttp.NewManagerIssuesHandler(issueService),
		Workers:       apihttp.NewWorkersHandler(workerService),
		Health:        apihttp.NewHealthHandler(postgres, redis, cfg.App.Version),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Error("server stopped", zap.Error(err))
			stop()
		}
	}()
	logger.Info("server listening", zap.String("addr", cfg.App.Addr()))

	<-ctx.Done()
	logger.Info("shutting down")
	if err := app.Shutdown(); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}
