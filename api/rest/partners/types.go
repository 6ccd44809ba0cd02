package partners

import (
	"context"

	"codeberg.org/qemxa/server/qemxa/partners"
)

type Store interface {
	ListPartnerProfiles(ctx context.Context, userID string) ([]partners.Profile, error)
	SavePartnerProfile(ctx context.Context, p *partners.Profile) error
}

// editable fields of a partner profile. tier and ownership are server-side.
type SaveProfileRequest struct {
	ID          string                   `json:"id,omitempty"`
	Name        string                   `json:"name" binding:"required,max=200"`
	Type        string                   `json:"type" binding:"required"`
	Description string                   `json:"description" binding:"max=2000"`
	Address     string                   `json:"address,omitempty"`
	Phone       string                   `json:"phone,omitempty"`
	Products    []partners.Product       `json:"products"`
	Services    []partners.ListedService `json:"services"`
}

type ListResponse struct {
	Partners []partners.Profile `json:"partners"`
}
