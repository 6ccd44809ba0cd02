package vehicles

import (
	"context"

	"codeberg.org/qemxa/server/qemxa/vehicles"
)

type Store interface {
	ListVehicles(ctx context.Context, userID string) ([]vehicles.Vehicle, error)
	CreateVehicle(ctx context.Context, userID string, req vehicles.CreateVehicleRequest) (*vehicles.Vehicle, error)
}

type ListResponse struct {
	Vehicles []vehicles.Vehicle `json:"vehicles"`
}
