package main

import (
	"io"

	"codeberg.org/qemxa/server/internal/auth"
	"codeberg.org/qemxa/server/internal/chat"
	"codeberg.org/qemxa/server/internal/config"
	"codeberg.org/qemxa/server/internal/storage"
	ws "codeberg.org/qemxa/server/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// holds all dependencies and state for the API server
type Server struct {
	config   *config.Config
	services *Services
	hub      *ws.Hub
	router   *gin.Engine
}

// holds the long-lived clients the handlers use
type Services struct {
	Store     storage.Store
	Guard     chat.InflightGuard
	Generator chat.Generator
	Chat      *chat.Service
	Auth      *auth.Authenticator

	// shared with the rate limiter; nil without REDIS_URL
	Redis *redis.Client

	closers []io.Closer
}
