package main

import (
	"context"
	"fmt"

	"codeberg.org/qemxa/server/internal/config"
	ws "codeberg.org/qemxa/server/internal/websocket"
	"github.com/gin-gonic/gin"
)

// creates and configures a new server instance with all dependencies
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	hub := ws.NewHub()

	services, err := InitializeServices(ctx, cfg, hub)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// websocket clients can run the same chat operations as REST
	ws.RegisterChatHandlers(hub, services.Chat, cfg.GenerationTimeout+cfg.PersistTimeout)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	server := &Server{
		config:   cfg,
		services: services,
		hub:      hub,
		router:   router,
	}

	if err := RegisterRoutes(router, server); err != nil {
		services.Close()
		return nil, err
	}

	return server, nil
}
