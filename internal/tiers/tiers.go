// Package tiers holds the subscription tier policy table.
package tiers

import (
	"errors"
	"fmt"
	"strings"
)

type Tier string

const (
	Free     Tier = "free"
	Premium  Tier = "premium"
	Platinum Tier = "platinum"
)

var ErrUnknownTier = errors.New("unknown tier")

// limits applied to a vehicle owner on a tier
type Policy struct {
	QueryLimit     int  `json:"query_limit"`
	QueryCharLimit int  `json:"query_char_limit"`
	VehicleLimit   int  `json:"vehicle_limit"`
	ImageDiagnosis bool `json:"image_diagnosis"`
	ServiceHistory bool `json:"service_history"`
}

// limits applied to a partner (service or parts shop) on a tier
type PartnerPolicy struct {
	ListingLimit int `json:"listing_limit"`
}

var policies = map[Tier]Policy{
	Free:     {QueryLimit: 5, QueryCharLimit: 250, VehicleLimit: 1},
	Premium:  {QueryLimit: 25, QueryCharLimit: 500, VehicleLimit: 10},
	Platinum: {QueryLimit: 150, QueryCharLimit: 700, VehicleLimit: 50, ImageDiagnosis: true, ServiceHistory: true},
}

var partnerPolicies = map[Tier]PartnerPolicy{
	Free:     {ListingLimit: 15},
	Premium:  {ListingLimit: 50},
	Platinum: {ListingLimit: 150},
}

// parses a tier name, rejecting anything outside the enumeration
func Parse(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := policies[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTier, s)
	}

	return t, nil
}

// maps a stored value to a tier; unknown values degrade to free
func FromStored(s string) Tier {
	t, err := Parse(s)
	if err != nil {
		return Free
	}

	return t
}

func (t Tier) Valid() bool {
	_, ok := policies[t]
	return ok
}

// ordering used for comparisons only
func (t Tier) Rank() int {
	switch t {
	case Premium:
		return 1
	case Platinum:
		return 2
	default:
		return 0
	}
}

// reports whether t is at least other
func (t Tier) AtLeast(other Tier) bool {
	return t.Rank() >= other.Rank()
}

func (t Tier) Policy() Policy {
	if p, ok := policies[t]; ok {
		return p
	}

	return policies[Free]
}

func (t Tier) PartnerPolicy() PartnerPolicy {
	if p, ok := partnerPolicies[t]; ok {
		return p
	}

	return partnerPolicies[Free]
}

// reports whether an owner with current vehicles may register another
func CanAddVehicle(t Tier, current int) bool {
	return current < t.Policy().VehicleLimit
}

// reports whether a partner with current listings may add more
func CanAddListings(t Tier, current, adding int) bool {
	return current+adding <= t.PartnerPolicy().ListingLimit
}
