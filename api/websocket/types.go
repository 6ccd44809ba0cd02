package websocket

import (
	"context"

	"codeberg.org/qemxa/server/internal/auth"
	"codeberg.org/qemxa/server/internal/chat"
)

// browsers cannot set headers on websocket upgrades, so the jwt rides in the query
type ConnectParams struct {
	Token string `form:"token" binding:"required"`
}

// loads (or creates) the chat a client subscribes to
type SessionOpener interface {
	Open(ctx context.Context, key chat.SessionKey) (*chat.Session, error)
}

type TokenValidator interface {
	ValidateJWT(token string) (*auth.Claims, error)
}
