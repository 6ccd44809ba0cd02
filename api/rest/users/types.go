package users

import (
	"context"

	"codeberg.org/qemxa/server/internal/chat"
)

type UsageReader interface {
	Usage(ctx context.Context, userID string) (*chat.UsageSummary, error)
}
