package main

import (
	"codeberg.org/qemxa/server/api/rest/chats"
	"codeberg.org/qemxa/server/api/rest/health"
	"codeberg.org/qemxa/server/api/rest/partners"
	"codeberg.org/qemxa/server/api/rest/users"
	"codeberg.org/qemxa/server/api/rest/vehicles"
	"codeberg.org/qemxa/server/api/websocket"
	ws "codeberg.org/qemxa/server/internal/websocket"
	"github.com/gin-gonic/gin"
)

// sets up all API routes and middleware
func RegisterRoutes(router *gin.Engine, server *Server) error {
	rateLimit, err := RateLimitMiddleware(server.config, server.services.Redis)
	if err != nil {
		return err
	}

	router.Use(CORSMiddleware(server.config))
	router.GET("/health", health.Handler(server.services.Store))

	authMiddleware := server.services.Auth.Middleware()
	checkOrigin := ws.NewOriginChecker(server.config.Environment, server.config.AllowedOrigins)

	v1 := router.Group("/api/v1")
	v1.Use(rateLimit)

	{
		v1.GET("/ping", health.PingHandler)

		chats.RegisterRoutes(v1, server.services.Chat, authMiddleware)
		users.RegisterRoutes(v1, server.services.Chat, authMiddleware)
		vehicles.RegisterRoutes(v1, server.services.Store, authMiddleware)
		partners.RegisterRoutes(v1, server.services.Store, authMiddleware)
		websocket.RegisterRoutes(v1, server.hub, server.services.Chat, server.services.Auth, checkOrigin)
	}

	return nil
}
