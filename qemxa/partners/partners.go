package partners

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"codeberg.org/qemxa/server/internal/tiers"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// creates a new partner repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// lists the partner profiles a user manages
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]Profile, error) {
	rows, err := r.db.Query(ctx, queryListByUser, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list partner profiles: %w", err)
	}
	defer rows.Close()

	var out []Profile

	for rows.Next() {
		var p Profile
		var tier string
		var products, services []byte

		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Type, &tier, &p.Description,
			&p.Address, &p.Phone, &products, &services); err != nil {
			return nil, fmt.Errorf("failed to scan partner profile: %w", err)
		}

		p.Tier = tiers.FromStored(tier)

		if err := json.Unmarshal(products, &p.Products); err != nil {
			return nil, fmt.Errorf("failed to decode products: %w", err)
		}

		if err := json.Unmarshal(services, &p.Services); err != nil {
			return nil, fmt.Errorf("failed to decode services: %w", err)
		}

		out = append(out, p)
	}

	return out, rows.Err()
}

// creates or updates a partner profile. the tier always comes from the
// stored row so a client cannot raise its own listing limit.
func (r *Repository) Save(ctx context.Context, p *Profile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
		p.Tier = tiers.Free
	} else {
		var tier string

		err := r.db.QueryRow(ctx, queryFindTier, p.ID, p.UserID).Scan(&tier)

		switch {
		case errors.Is(err, pgx.ErrNoRows):
			p.Tier = tiers.Free
		case err != nil:
			return fmt.Errorf("failed to load partner tier: %w", err)
		default:
			p.Tier = tiers.FromStored(tier)
		}
	}

	if err := CheckListingLimit(p); err != nil {
		return err
	}

	products, err := json.Marshal(nonNil(p.Products))
	if err != nil {
		return fmt.Errorf("failed to encode products: %w", err)
	}

	services, err := json.Marshal(nonNil(p.Services))
	if err != nil {
		return fmt.Errorf("failed to encode services: %w", err)
	}

	_, err = r.db.Exec(ctx, queryUpsert, p.ID, p.UserID, p.Name, p.Type, string(p.Tier),
		p.Description, p.Address, p.Phone, string(products), string(services))
	if err != nil {
		return fmt.Errorf("failed to save partner profile: %w", err)
	}

	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}

	return s
}
