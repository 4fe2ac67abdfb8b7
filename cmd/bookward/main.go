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

	"github.com/bookward/bookward/internal/app"
	"github.com/bookward/bookward/internal/auth"
	"github.com/bookward/bookward/internal/authz"
	"github.com/bookward/bookward/internal/books"
	"github.com/bookward/bookward/internal/observability"
	"github.com/bookward/bookward/internal/platform/cache"
	"github.com/bookward/bookward/internal/platform/db"
	"github.com/bookward/bookward/internal/token"
	"github.com/bookward/bookward/internal/users"
)

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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	metrics := observability.NewMetrics()
	tokens := token.NewService(cfg.TokenConfig())
	revocations := auth.NewRevocations(redisClient)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, tokens, revocations, logger)
	authHandler := auth.NewHandler(logger, authService)
	gate := auth.NewMiddleware(authService, logger, metrics)
	policy := authz.NewPolicy()

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService, authService, gate, policy)

	booksRepo := books.NewRepository(pool)
	booksService := books.NewService(booksRepo, policy)
	booksHandler := books.NewHandler(logger, booksService, gate)

	router := app.NewRouter(app.RouterParams{
		Logger:       logger,
		Config:       cfg,
		AuthHandler:  authHandler,
		UsersHandler: usersHandler,
		BooksHandler: booksHandler,
		Metrics:      metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", slog.Any("error", err))
		}
	}()

	logger.Info("bookward listening", slog.String("addr", cfg.AppAddr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
