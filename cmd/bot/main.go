package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-bot/internal/api/http"
	"github.com/spec-kit/helpdesk-bot/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-bot/internal/auth"
	"github.com/spec-kit/helpdesk-bot/internal/chat/rest"
	"github.com/spec-kit/helpdesk-bot/internal/config"
	"github.com/spec-kit/helpdesk-bot/internal/events"
	"github.com/spec-kit/helpdesk-bot/internal/ledger"
	"github.com/spec-kit/helpdesk-bot/internal/lifecycle"
	"github.com/spec-kit/helpdesk-bot/internal/observability"
	"github.com/spec-kit/helpdesk-bot/internal/persistence"
	"github.com/spec-kit/helpdesk-bot/internal/scheduler"
	"github.com/spec-kit/helpdesk-bot/internal/service"
	"github.com/spec-kit/helpdesk-bot/internal/store"
	"github.com/spec-kit/helpdesk-bot/internal/transcript"
	"github.com/spec-kit/helpdesk-bot/internal/worker"
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

	var pg *persistence.Postgres
	if cfg.Store.Driver == config.StoreDriverPostgres {
		pg, err = persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var docStore store.Store
	if pg != nil {
		docStore = store.NewPostgresStore(pg.PoolHandle())
	} else {
		docStore = store.NewFileStore(cfg.Store.FilePath)
	}

	gateway := rest.NewClient(cfg.Platform.APIURL, cfg.Platform.APIToken, cfg.Platform.Timeout())
	cache := ledger.NewCache(redis.Client, logger)
	dispatcher := events.NewInMemoryDispatcher()
	sched := scheduler.New()
	defer sched.Close()

	auditService := service.NewAuditService(dispatcher, docStore, gateway, logger)
	worker.StartAuditWorker(auditService)

	lifecycleService := lifecycle.NewService(lifecycle.Dependencies{
		Store:      docStore,
		Gateway:    gateway,
		Archiver:   transcript.NewArchiver(gateway, logger),
		Dispatcher: dispatcher,
		Scheduler:  sched,
		Cache:      cache,
		Logger:     logger,
		Ticket:     cfg.Ticket,
	})

	metrics := observability.NewMetrics()
	interactionDispatcher := lifecycle.NewDispatcher(lifecycleService, metrics, logger)

	adminService := service.NewAdminService(docStore, cache, logger)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(tokens, cfg.Auth.AdminPasswordHash),
		Leaderboard:    handlers.NewLeaderboardHandler(adminService),
		Admin:          handlers.NewAdminHandler(adminService),
		Interaction:    handlers.NewInteractionHandler(interactionDispatcher),
		AuthMiddleware: authMiddleware,
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
