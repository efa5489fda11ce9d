package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"book-rag/internal/adapter/chat_http"
	"book-rag/internal/di"
	"book-rag/internal/infra"
	"book-rag/internal/infra/config"
	"book-rag/internal/infra/logger"
	"book-rag/internal/infra/telemetry"
)

func main() {
	// 1. Load Config
	cfg := config.Load()

	// 2. Initialize Telemetry (optional)
	if cfg.OTelEnabled {
		shutdown, err := telemetry.Setup(context.Background(), "book-rag", cfg.Env, cfg.OTLPEndpoint)
		if err != nil {
			slog.Error("failed to set up telemetry", "error", err)
			os.Exit(1)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(ctx)
		}()
	}

	// 3. Initialize Logger
	log := logger.NewWithOTel(cfg.OTelEnabled)
	slog.SetDefault(log)

	// 4. Initialize DB
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	dbPool, err := infra.NewPostgresDB(context.Background(), dsn)
	if err != nil {
		log.Error("failed to connect to db", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	// 5. Wire Components
	components := di.NewApplicationComponents(cfg, dbPool, log)

	// 6. Ensure Vector Collection
	if err := components.VectorIndex.EnsureCollection(context.Background(), cfg.EmbeddingDimension); err != nil {
		log.Error("failed to ensure vector collection", "error", err)
		os.Exit(1)
	}

	// 7. Start Corpus Watcher (optional)
	if components.Watcher != nil {
		if err := components.Watcher.Start(); err != nil {
			log.Error("failed to start corpus watcher", "error", err)
			os.Exit(1)
		}
		defer components.Watcher.Stop()
	}

	// 8. Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	// 9. Register Handlers
	handler := chat_http.NewHandler(components.ChatUsecase, components.IngestUsecase, log)
	handler.RegisterRoutes(e)

	// 10. Health Checks
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/readyz", func(c echo.Context) error {
		ctx := c.Request().Context()
		if err := dbPool.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "db down", "error": err.Error()})
		}
		count, err := components.VectorIndex.Count(ctx)
		if err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "index down", "error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"status": "ready", "indexed_vectors": count})
	})

	// 11. Start Server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Info("Starting server", "addr", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server")
		}
	}()

	// 12. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal(err)
	}
}
