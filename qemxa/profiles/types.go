package profiles

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"codeberg.org/qemxa/server/internal/quota"
	"codeberg.org/qemxa/server/internal/tiers"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

// a user's subscription and daily usage. tier changes arrive from the
// payment webhook, outside this service.
type Profile struct {
	ID               string     `json:"id"`
	Tier             tiers.Tier `json:"tier"`
	DailyUsage       DailyUsage `json:"dailyUsage"`
	StripeCustomerID string     `json:"stripe_customer_id,omitempty"`
}

// jsonb usage counter
type DailyUsage quota.UsageCounter

func (d DailyUsage) Value() (driver.Value, error) {
	bytes, err := json.Marshal(quota.UsageCounter(d))
	if err != nil {
		return nil, err
	}

	return string(bytes), nil
}

func (d *DailyUsage) Scan(value any) error {
	var raw []byte

	switch v := value.(type) {
	case nil:
		*d = DailyUsage{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported dailyUsage column type %T", value)
	}

	var counter quota.UsageCounter
	if err := json.Unmarshal(raw, &counter); err != nil {
		return err
	}

	*d = DailyUsage(counter)

	return nil
}
