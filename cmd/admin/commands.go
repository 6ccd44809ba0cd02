package main

import (
	"context"
	"errors"
	"fmt"

	"codeberg.org/qemxa/server/internal/auth"
	"codeberg.org/qemxa/server/internal/config"
	"codeberg.org/qemxa/server/internal/logger"
	"codeberg.org/qemxa/server/internal/tiers"
	"codeberg.org/qemxa/server/qemxa/vehicles"
)

var errMissingUser = errors.New("--user is required")

// the store operations the admin commands need
type adminStore interface {
	SetTier(ctx context.Context, userID string, tier tiers.Tier) error
	CreateVehicle(ctx context.Context, userID string, req vehicles.CreateVehicleRequest) (*vehicles.Vehicle, error)
}

func SetTier(ctx context.Context, store adminStore, flags config.Flags) error {
	if flags.UserID == "" {
		return errMissingUser
	}

	tier, err := tiers.Parse(flags.Tier)
	if err != nil {
		return err
	}

	if err := store.SetTier(ctx, flags.UserID, tier); err != nil {
		return fmt.Errorf("failed to set tier: %w", err)
	}

	logger.Info("tier updated", "user_id", flags.UserID, "tier", tier)
	return nil
}

func AddVehicle(ctx context.Context, store adminStore, flags config.Flags) error {
	if flags.UserID == "" {
		return errMissingUser
	}

	vehicle, err := store.CreateVehicle(ctx, flags.UserID, vehicles.CreateVehicleRequest{
		VIN:   flags.VIN,
		Brand: flags.Brand,
		Model: flags.Model,
		Year:  flags.Year,
	})
	if err != nil {
		return fmt.Errorf("failed to add vehicle: %w", err)
	}

	logger.Info("vehicle added",
		"user_id", flags.UserID,
		"vin", vehicle.VIN,
		"vehicle", fmt.Sprintf("%d %s %s", vehicle.Year, vehicle.Brand, vehicle.Model),
	)

	return nil
}

func IssueToken(cfg *config.Config, flags config.Flags) error {
	if flags.UserID == "" {
		return errMissingUser
	}

	authn, err := auth.New(cfg.JWTSecret)
	if err != nil {
		return err
	}

	token, err := authn.GenerateJWT(flags.UserID, flags.Email)
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}
