package vehicles

import (
	"context"
	"errors"
	"fmt"

	"codeberg.org/qemxa/server/internal/tiers"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// postgres unique_violation
const codeUniqueViolation = "23505"

// creates a new vehicle repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByKey(ctx context.Context, vin, userID string) (*Vehicle, error) {
	var v Vehicle

	err := r.db.QueryRow(ctx, queryFindByKey, vin, userID).Scan(
		&v.VIN,
		&v.UserID,
		&v.Brand,
		&v.Model,
		&v.Year,
		&v.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrVehicleNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load vehicle: %w", err)
	}

	return &v, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]Vehicle, error) {
	rows, err := r.db.Query(ctx, queryListByUser, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	defer rows.Close()

	var out []Vehicle

	for rows.Next() {
		var v Vehicle
		if err := rows.Scan(&v.VIN, &v.UserID, &v.Brand, &v.Model, &v.Year, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vehicle: %w", err)
		}

		out = append(out, v)
	}

	return out, rows.Err()
}

// registers a vehicle if the owner's tier allows another one
func (r *Repository) Create(ctx context.Context, userID string, tier tiers.Tier, req CreateVehicleRequest) (*Vehicle, error) {
	req, err := Decode(req)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	v, err := createLocked(ctx, tx, userID, tier, req)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return v, nil
}

// the subset of pgx.Tx that createLocked uses
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// locks the owner's profile row before counting, so concurrent creates for
// one owner run one at a time and the count cannot go stale
func createLocked(ctx context.Context, q rowQuerier, userID string, tier tiers.Tier, req CreateVehicleRequest) (*Vehicle, error) {
	var stored string

	err := q.QueryRow(ctx, queryLockOwner, userID).Scan(&stored)

	switch {
	case err == nil:
		tier = tiers.FromStored(stored)
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("failed to lock owner profile: %w", err)
	}

	var count int
	if err := q.QueryRow(ctx, queryCountByUser, userID).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count vehicles: %w", err)
	}

	if !tiers.CanAddVehicle(tier, count) {
		return nil, ErrVehicleLimitReached
	}

	var v Vehicle

	err = q.QueryRow(ctx, queryCreate, req.VIN, userID, req.Brand, req.Model, req.Year).Scan(
		&v.VIN,
		&v.UserID,
		&v.Brand,
		&v.Model,
		&v.Year,
		&v.CreatedAt,
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		return nil, ErrVehicleExists
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}

	return &v, nil
}
