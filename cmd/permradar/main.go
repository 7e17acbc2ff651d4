package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/permradar/permradar/internal/app"
	"github.com/permradar/permradar/internal/audit"
	"github.com/permradar/permradar/internal/auth"
	"github.com/permradar/permradar/internal/mutation"
	"github.com/permradar/permradar/internal/platform/cache"
	"github.com/permradar/permradar/internal/platform/db"
	"github.com/permradar/permradar/internal/rbac"
	"github.com/permradar/permradar/internal/users"
	"github.com/permradar/permradar/migrations"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if err := db.Migrate(cfg.PGDSN, migrations.FS); err != nil {
		logger.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		// The graph cache is an optimization; the service runs without it.
		logger.Warn("redis unavailable, graph cache disabled", slog.Any("error", err))
		redisClient = nil
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)

	authService := auth.NewService(auth.NewRepository(pool))
	authHandler := auth.NewHandler(logger, authService, tokenManager, cfg.LoginRateLimit, cfg.LoginRateWindow)

	graphService := rbac.NewService(logger, rbac.New(pool), redisClient, cfg.GraphCacheTTL)
	graphHandler := rbac.NewHandler(logger, graphService)

	mutationService := mutation.NewService(mutation.NewRepository(pool), graphService)
	mutationHandler := mutation.NewHandler(logger, mutationService)

	auditHandler := audit.NewHandler(logger, audit.New(pool))

	usersService := users.NewService(users.NewRepository(pool))
	usersHandler := users.NewHandler(logger, usersService)

	router := app.NewRouter(app.RouterParams{
		Config:          cfg,
		TokenManager:    tokenManager,
		AuthHandler:     authHandler,
		GraphHandler:    graphHandler,
		MutationHandler: mutationHandler,
		AuditHandler:    auditHandler,
		UsersHandler:    usersHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", slog.Any("error", err))
	}
}
