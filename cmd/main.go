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

	"babelbye/backend/internal/api/handler"
	"babelbye/backend/internal/auth"
	"babelbye/backend/internal/chathub"
	"babelbye/backend/internal/config"
	"babelbye/backend/internal/localization"
	"babelbye/backend/internal/storage"
	"babelbye/backend/internal/translation"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("babelbye backend stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log := config.NewLogger(cfg.LogLevel)
	slog.SetDefault(log)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, sqlDB, err := storage.OpenPostgres(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing postgres")
		_ = sqlDB.Close()
	}()

	rdb, err := storage.OpenRedis(ctx, cfg, log)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	store := storage.NewStorageService(db, rdb, log)
	if err := store.ResetPresence(ctx); err != nil {
		log.Warn("failed to reset presence", "error", err)
	}

	catalog, err := localization.NewCatalog()
	if err != nil {
		return fmt.Errorf("loading language catalog: %w", err)
	}

	translator, err := translation.New(cfg, catalog)
	if err != nil {
		return err
	}
	log.Info("translation provider selected", "provider", fmt.Sprintf("%T", translator))

	handshake, err := auth.NewHandshake(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("configuring auth: %w", err)
	}

	registry := chathub.NewRegistry(log)
	relay := chathub.NewRelay(store, translator, registry, log,
		chathub.WithFailureNotices(cfg.NotifySendFailures))

	h := handler.NewHandler(store, registry, relay, handshake, catalog, cfg, log)
	router, err := h.Router()
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down gracefully")
	case err := <-errChan:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Hijacked WebSocket connections are not tracked by Shutdown.
	registry.CloseAll()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	log.Info("stopped cleanly")
	return nil
}
