package vehicles

import (
	"errors"
	"time"

	"codeberg.org/qemxa/server/internal/history"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrVehicleNotFound     = errors.New("vehicle not found")
	ErrVehicleExists       = errors.New("vehicle already registered")
	ErrVehicleLimitReached = errors.New("vehicle limit reached for this tier")
	ErrInvalidVIN          = errors.New("invalid VIN")
)

type Repository struct {
	db *pgxpool.Pool
}

type Vehicle struct {
	VIN       string    `json:"vin"`
	UserID    string    `json:"user_id"`
	Brand     string    `json:"brand"`
	Model     string    `json:"model"`
	Year      int       `json:"year"`
	CreatedAt time.Time `json:"created_at"`
}

func (v *Vehicle) Info() history.VehicleInfo {
	return history.VehicleInfo{VIN: v.VIN, Brand: v.Brand, Model: v.Model, Year: v.Year}
}

// contains data for registering a vehicle. brand, model and year are
// decoded from the VIN when left empty.
type CreateVehicleRequest struct {
	VIN   string `json:"vin" binding:"required"`
	Brand string `json:"brand"`
	Model string `json:"model"`
	Year  int    `json:"year"`
}
