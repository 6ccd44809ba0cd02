package chats

import (
	"context"
	"encoding/json"

	"codeberg.org/qemxa/server/internal/chat"
	"codeberg.org/qemxa/server/internal/history"
	"codeberg.org/qemxa/server/internal/quota"
)

// the chat operations the handlers call. implemented by chat.Service.
type Service interface {
	Open(ctx context.Context, key chat.SessionKey) (*chat.Session, error)
	Send(ctx context.Context, key chat.SessionKey, content, imageURL string, useSearch bool) (*chat.Outcome, error)
	Edit(ctx context.Context, key chat.SessionKey, messageID, content string, useSearch bool) (*chat.Outcome, error)
	Regenerate(ctx context.Context, key chat.SessionKey, messageID string, useSearch bool) (*chat.Outcome, error)
	Delete(ctx context.Context, key chat.SessionKey, messageID string) (*chat.Outcome, error)
	Reset(ctx context.Context, key chat.SessionKey) (*chat.Outcome, error)
}

type ChatResponse struct {
	VIN            string          `json:"vin"`
	Messages       history.History `json:"messages"`
	ServiceHistory json.RawMessage `json:"serviceHistory,omitempty"`
}

// result of a chat operation
type TurnResponse struct {
	State    chat.State         `json:"state"`
	Messages history.History    `json:"messages"`
	Usage    quota.UsageCounter `json:"usage"`

	// set when the reply was committed but could not be saved
	Warning string `json:"warning,omitempty"`
}

type SendMessageRequest struct {
	Content   string `json:"content" binding:"max=8000"`
	ImageURL  string `json:"image_url,omitempty"`
	UseSearch bool   `json:"use_search"`
}

type EditMessageRequest struct {
	Content   string `json:"content" binding:"max=8000"`
	UseSearch bool   `json:"use_search"`
}

type RegenerateRequest struct {
	UseSearch bool `json:"use_search"`
}
