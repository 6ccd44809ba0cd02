package storage

import (
	"context"

	"codeberg.org/qemxa/server/internal/chat"
	"codeberg.org/qemxa/server/internal/tiers"
	"codeberg.org/qemxa/server/qemxa/partners"
	"codeberg.org/qemxa/server/qemxa/vehicles"
)

// everything the server persists. implemented by PostgresGateway and
// BoltGateway.
type Store interface {
	chat.Gateway

	ListVehicles(ctx context.Context, userID string) ([]vehicles.Vehicle, error)
	CreateVehicle(ctx context.Context, userID string, req vehicles.CreateVehicleRequest) (*vehicles.Vehicle, error)
	ListPartnerProfiles(ctx context.Context, userID string) ([]partners.Profile, error)
	SavePartnerProfile(ctx context.Context, p *partners.Profile) error
	SetTier(ctx context.Context, userID string, tier tiers.Tier) error
	Ping(ctx context.Context) error
	Close() error
}
