package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-bm/meridian-bm/internal/app"
	"github.com/meridian-bm/meridian-bm/internal/assignments"
	"github.com/meridian-bm/meridian-bm/internal/audit"
	"github.com/meridian-bm/meridian-bm/internal/auth"
	"github.com/meridian-bm/meridian-bm/internal/inventory"
	"github.com/meridian-bm/meridian-bm/internal/observability"
	"github.com/meridian-bm/meridian-bm/internal/orders"
	"github.com/meridian-bm/meridian-bm/internal/platform/cache"
	"github.com/meridian-bm/meridian-bm/internal/platform/db"
	"github.com/meridian-bm/meridian-bm/internal/products"
	"github.com/meridian-bm/meridian-bm/internal/rbac"
	"github.com/meridian-bm/meridian-bm/internal/shared"
	"github.com/meridian-bm/meridian-bm/internal/users"
	"github.com/meridian-bm/meridian-bm/jobs"
)

type emailDirectory struct {
	repo users.Repository
}

func (d emailDirectory) Email(ctx context.Context, userID int64) (string, error) {
	u, err := d.repo.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.Email, nil
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	auditRecorder := shared.NewAuditRecorder(dbpool)
	rbacMiddleware := rbac.Middleware{Logger: logger}

	tokenStore := auth.NewTokenStore(redisClient, cfg.TokenTTL)
	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, tokenStore)
	authHandler := auth.NewHandler(logger, authService)

	usersRepo := users.NewRepository(dbpool)
	notifier := jobs.NewNotifier(jobClient, emailDirectory{repo: usersRepo}, logger)
	usersService := users.NewService(usersRepo, auditRecorder, notifier)
	usersHandler := users.NewHandler(logger, usersService, rbacMiddleware)

	productsRepo := products.NewRepository(dbpool)
	productsService := products.NewService(productsRepo, auditRecorder)
	productsHandler := products.NewHandler(logger, productsService, rbacMiddleware)

	inventoryRepo := inventory.NewRepository(dbpool)
	inventoryService := inventory.NewService(inventoryRepo, auditRecorder)
	inventoryHandler := inventory.NewHandler(logger, inventoryService, rbacMiddleware)

	ordersRepo := orders.NewRepository(dbpool)
	ordersService := orders.NewService(ordersRepo, auditRecorder, notifier)
	ordersHandler := orders.NewHandler(logger, ordersService)

	assignmentsRepo := assignments.NewRepository(dbpool)
	assignmentsService := assignments.NewService(assignmentsRepo, auditRecorder)
	assignmentsHandler := assignments.NewHandler(logger, assignmentsService, rbacMiddleware)

	auditRepo := audit.NewRepository(dbpool)
	auditHandler := audit.NewHandler(logger, auditRepo, rbacMiddleware)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		AuthService:        authService,
		AuthHandler:        authHandler,
		UsersHandler:       usersHandler,
		ProductsHandler:    productsHandler,
		InventoryHandler:   inventoryHandler,
		OrdersHandler:      ordersHandler,
		AssignmentsHandler: assignmentsHandler,
		AuditHandler:       auditHandler,
		JobsHandler:        jobsHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
