package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/qemxa/server/internal/config"
	"codeberg.org/qemxa/server/internal/logger"
)

// @title QEMXA API
// @version 1.0
// @description Vehicle diagnostic assistant: per-vehicle chats with an AI mechanic
// @description
// @description Features:
// @description - Chat per vehicle with send, edit, regenerate, delete and reset
// @description - Daily message quotas and per-tier limits
// @description - Live chat updates via WebSockets

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authenticated requests. Format: Bearer {token}

func main() {
	logger.Info("starting qemxa server")

	cfg, err := config.LoadEnvironmentVariables()
	if err != nil {
		logger.Fatal("failed to load configuration", "error", err)
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	srv, err := NewServer(startCtx, cfg)
	startCancel()

	if err != nil {
		logger.Fatal("failed to create server", "error", err)
	}

	httpServer := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     srv.router,
		ReadTimeout: 15 * time.Second,
		// a turn waits for the model, so writes may take as long as a generation
		WriteTimeout: cfg.GenerationTimeout + cfg.PersistTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if cfg.GenerationTimeout == 0 {
		httpServer.WriteTimeout = 0
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "store", cfg.StoreDriver)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed to start", "error", err)
		}
	}()

	// start websocket hub
	go srv.hub.Run()

	// wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// notify websocket clients and close connections first
	srv.hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	srv.services.Close()

	logger.Info("server stopped")
}
