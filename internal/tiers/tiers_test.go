package tiers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyTable(t *testing.T) {
	tests := []struct {
		tier     Tier
		policy   Policy
		listings int
	}{
		{Free, Policy{QueryLimit: 5, QueryCharLimit: 250, VehicleLimit: 1}, 15},
		{Premium, Policy{QueryLimit: 25, QueryCharLimit: 500, VehicleLimit: 10}, 50},
		{Platinum, Policy{QueryLimit: 150, QueryCharLimit: 700, VehicleLimit: 50, ImageDiagnosis: true, ServiceHistory: true}, 150},
	}

	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			assert.Equal(t, tt.policy, tt.tier.Policy())
			assert.Equal(t, tt.listings, tt.tier.PartnerPolicy().ListingLimit)
		})
	}
}

func TestParse(t *testing.T) {
	tier, err := Parse(" Premium ")
	require.NoError(t, err)
	assert.Equal(t, Premium, tier)

	_, err = Parse("gold")
	assert.ErrorIs(t, err, ErrUnknownTier)

	assert.Equal(t, Free, FromStored("gold"))
	assert.Equal(t, Platinum, FromStored("platinum"))
}

func TestRankOrdering(t *testing.T) {
	assert.True(t, Platinum.AtLeast(Premium))
	assert.True(t, Premium.AtLeast(Free))
	assert.False(t, Free.AtLeast(Premium))
	assert.True(t, Free.AtLeast(Free))
}

func TestUnknownTierFallsBackToFree(t *testing.T) {
	assert.Equal(t, Free.Policy(), Tier("gold").Policy())
	assert.False(t, Tier("gold").Valid())
}

func TestLimitChecks(t *testing.T) {
	assert.True(t, CanAddVehicle(Free, 0))
	assert.False(t, CanAddVehicle(Free, 1))
	assert.True(t, CanAddVehicle(Premium, 9))
	assert.False(t, CanAddVehicle(Premium, 10))

	assert.True(t, CanAddListings(Free, 10, 5))
	assert.False(t, CanAddListings(Free, 10, 6))
	assert.True(t, CanAddListings(Platinum, 0, 150))
}
