package profiles

import (
	"context"
	"errors"
	"fmt"

	"codeberg.org/qemxa/server/internal/quota"
	"codeberg.org/qemxa/server/internal/tiers"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrProfileNotFound = errors.New("profile not found")

// creates a new profile repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// returns the user's profile, creating a free one on first access
func (r *Repository) FindOrCreate(ctx context.Context, userID string) (*Profile, error) {
	var profile Profile
	var tier string

	err := r.db.QueryRow(ctx, queryFindOrCreate, userID, DailyUsage{}).Scan(
		&profile.ID,
		&tier,
		&profile.DailyUsage,
		&profile.StripeCustomerID,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	profile.Tier = tiers.FromStored(tier)

	return &profile, nil
}

// overwrites the daily usage counter
func (r *Repository) UpdateDailyUsage(ctx context.Context, userID string, usage quota.UsageCounter) error {
	tag, err := r.db.Exec(ctx, queryUpdateDailyUsage, DailyUsage(usage), userID)
	if err != nil {
		return fmt.Errorf("failed to update daily usage: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}

	return nil
}

func (r *Repository) UpdateTier(ctx context.Context, userID string, tier tiers.Tier) error {
	tag, err := r.db.Exec(ctx, queryUpdateTier, string(tier), userID)
	if err != nil {
		return fmt.Errorf("failed to update tier: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}

	return nil
}
