// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expense-hive/internal/auth"
	"expense-hive/internal/config"
	"expense-hive/internal/handler"
	"expense-hive/internal/service"
	"expense-hive/internal/storage"
	"expense-hive/internal/storage/memory"
	"expense-hive/internal/storage/mongo"
	"expense-hive/internal/storage/postgres"

	"github.com/gin-gonic/gin"
)

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func openStorage(ctx context.Context, cfg config.Config) (storage.Storage, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	switch cfg.StorageBackend {
	case config.BackendMongo:
		return mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.BackendPostgres:
		store, err := postgres.Connect(ctx, cfg.DBConn)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := store.Migrate(ctx); err != nil {
				store.Close(ctx)
				return nil, err
			}
			slog.Info("migrations applied")
		}
		return store, nil
	case config.BackendMemory:
		return memory.NewStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func main() {
	cfg := config.MustLoad()
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg)
	if err != nil {
		slog.Error("failed to open storage", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}
	slog.Info("storage ready", "backend", store.Name())

	tokenService := auth.NewTokenService(cfg)
	tracker := service.New(store, tokenService)

	gin.SetMode(cfg.GinMode)
	router := handler.NewRouter(handler.New(tracker), tokenService, cfg, logger)

	srv := &http.Server{
		Addr:              cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped with error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
	if err := store.Close(shutdownCtx); err != nil {
		slog.Error("failed to close storage", "error", err)
	}
}
