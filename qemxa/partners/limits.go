package partners

import (
	"fmt"

	"codeberg.org/qemxa/server/internal/tiers"
)

// validates a profile before it is saved. the tier is the one stored on
// the profile row, read fresh by the caller.
func CheckListingLimit(p *Profile) error {
	if p.Type != TypeService && p.Type != TypeParts {
		return ErrInvalidPartnerType
	}

	if !tiers.CanAddListings(p.Tier, 0, p.Listings()) {
		return fmt.Errorf("%w: %d > %d", ErrListingLimitReached, p.Listings(), p.Tier.PartnerPolicy().ListingLimit)
	}

	return nil
}
