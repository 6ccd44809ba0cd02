package partners

import (
	"errors"

	"codeberg.org/qemxa/server/internal/llm"
	"codeberg.org/qemxa/server/internal/tiers"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrListingLimitReached = errors.New("listing limit reached for this partner tier")
	ErrInvalidPartnerType  = errors.New("partner type must be service or parts")
)

const (
	TypeService = "service"
	TypeParts   = "parts"
)

type Repository struct {
	db *pgxpool.Pool
}

type Product struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Price               float64 `json:"price"`
	Description         string  `json:"description"`
	ImageURL            string  `json:"imageUrl,omitempty"`
	OEMNumber           string  `json:"oemNumber"`
	Condition           string  `json:"condition"` // "new" or "used"
	CompatibleModels    string  `json:"compatibleModels"`
	CrossReferenceCodes string  `json:"crossReferenceCodes"`
}

type ListedService struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	EstimatedPrice string `json:"estimatedPrice,omitempty"`
}

// a service shop or parts seller listed in the partner directory
type Profile struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id"`
	Name             string          `json:"name"`
	Type             string          `json:"type"`
	Tier             tiers.Tier      `json:"tier"`
	Description      string          `json:"description"`
	Address          string          `json:"address,omitempty"`
	Phone            string          `json:"phone,omitempty"`
	Products         []Product       `json:"products"`
	Services         []ListedService `json:"services"`
	StripeCustomerID string          `json:"stripe_customer_id,omitempty"`
}

// number of products and services the profile lists
func (p *Profile) Listings() int {
	return len(p.Products) + len(p.Services)
}

// the part of the profile the assistant sees
func (p *Profile) Summary() llm.PartnerSummary {
	return llm.PartnerSummary{Name: p.Name, Type: p.Type, Description: p.Description}
}

// summaries for a set of profiles
func Summaries(profiles []Profile) []llm.PartnerSummary {
	out := make([]llm.PartnerSummary, 0, len(profiles))
	for i := range profiles {
		out = append(out, profiles[i].Summary())
	}

	return out
}
