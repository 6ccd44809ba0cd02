package llm

import (
	"context"

	"codeberg.org/qemxa/server/internal/history"
)

// represents different LLM providers
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderAnthropic Provider = "anthropic"
	ProviderOffline   Provider = "offline"
)

// produces the next assistant reply for a chat
type TextGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (*Reply, error)
	Model() string
}

// a partner shop the assistant may recommend
type PartnerSummary struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // "service" or "parts"
	Description string `json:"description"`
}

type GenerateRequest struct {
	Vehicle   history.VehicleInfo
	History   history.History
	UseSearch bool
	Partners  []PartnerSummary
}

type Reply struct {
	Text    string
	Sources []history.GroundingSource
	Usage   Usage
}

type Usage struct {
	InputTokens  int
	OutputTokens int
}

// holds configuration for generator initialization
type Config struct {
	Provider    Provider
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	BaseURL     string // overrides the provider endpoint when set
}
