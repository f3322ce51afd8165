package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/triage-service/internal/api/http"
	"github.com/spec-kit/triage-service/internal/api/http/handlers"
	"github.com/spec-kit/triage-service/internal/auth"
	"github.com/spec-kit/triage-service/internal/config"
	"github.com/spec-kit/triage-service/internal/delivery"
	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/observability"
	"github.com/spec-kit/triage-service/internal/persistence"
	"github.com/spec-kit/triage-service/internal/repository"
	"github.com/spec-kit/triage-service/internal/service"
	"github.com/spec-kit/triage-service/internal/worker"
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

	pool := pg.PoolHandle()
	if pool != nil && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	rdb := persistence.NewRedis(cfg.Redis, logger)
	defer rdb.Close()

	var (
		ticketRepo  repository.TicketRepository
		actorRepo   repository.ActorRepository
		accountRepo repository.AccountRepository
	)
	if pool != nil {
		ticketRepo = repository.NewTicketRepository(pool)
		actorRepo = repository.NewActorRepository(pool)
		accountRepo = repository.NewAccountRepository(pool)
	} else {
		ticketRepo = repository.NewMemoryTicketRepository()
		actorRepo = repository.NewMemoryActorRepository()
		accountRepo = repository.NewMemoryAccountRepository()
	}

	var draftStore repository.DraftStore
	if err := rdb.Ping(ctx); err == nil {
		draftStore = repository.NewRedisDraftStore(rdb.Client, cfg.Draft.TTL())
	} else {
		draftStore = repository.NewMemoryDraftStore()
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	adapters := delivery.Adapters{
		DA:         buildAdapter(cfg.Delivery.DAWebhookURL, cfg, logger, "da"),
		Supervisor: buildAdapter(cfg.Delivery.SupervisorWebhookURL, cfg, logger, "supervisor"),
		Client:     buildAdapter(cfg.Delivery.ClientWebhookURL, cfg, logger, "client"),
	}

	reminders := service.NewReminderService(ticketRepo, dispatcher, logger, cfg.Reminder)
	defer reminders.Stop()

	workflow := service.NewWorkflowService(service.WorkflowDependencies{
		TicketRepo: ticketRepo,
		Dispatcher: dispatcher,
		Reminders:  reminders,
	})
	registry := service.NewRegistryService(actorRepo)
	drafts := service.NewDraftService(draftStore, workflow)
	authService := service.NewAuthService(accountRepo, cfg.Auth)

	notifications := service.NewNotificationService(actorRepo, adapters, logger, metrics, cfg.Delivery)
	worker.StartNotificationWorker(notifications, dispatcher)

	seedAccounts(ctx, authService, logger)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), accountRepo)

	app := fiber.New(fiber.Config{DisableStartupMessage: cfg.App.Env == "production"})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, rdb),
		Auth:           handlers.NewAuthHandler(authService),
		Actors:         handlers.NewActorsHandler(registry),
		Drafts:         handlers.NewDraftsHandler(drafts),
		Tickets:        handlers.NewTicketsHandler(workflow, reminders),
		Admin:          handlers.NewAdminHandler(workflow, registry),
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

// buildAdapter prefers a webhook endpoint; without one the role's
// messages go to the log, which keeps local development workable.
func buildAdapter(url string, cfg *config.Config, logger *zap.Logger, role string) delivery.Adapter {
	if url != "" {
		return delivery.NewWebhookAdapter(url, cfg.Delivery.SendTimeout())
	}
	return delivery.NewLoggingAdapter(logger, role)
}

// seedAccounts creates a bootstrap admin account when the backing
// store starts empty, so a fresh deployment can be reached at all.
func seedAccounts(ctx context.Context, authService *service.AuthService, logger *zap.Logger) {
	name := os.Getenv("BOOTSTRAP_ADMIN_NAME")
	secret := os.Getenv("BOOTSTRAP_ADMIN_SECRET")
	if name == "" || secret == "" {
		return
	}
	if _, err := authService.CreateAccount(ctx, name, secret, domain.ScopeAdmin); err != nil {
		logger.Warn("bootstrap admin account not created", zap.Error(err))
		return
	}
	logger.Info("bootstrap admin account created", zap.String("name", name))
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
