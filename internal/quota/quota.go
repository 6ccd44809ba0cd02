// Package quota tracks the per-user daily message allowance.
//
// Counters reset lazily: a counter stamped with an earlier day is treated
// as zero the first time it is read or advanced on a new day.
package quota

import (
	"time"

	"codeberg.org/qemxa/server/internal/tiers"
)

// calendar day layout used for UsageCounter.Date
const DateLayout = "2006-01-02"

// persisted daily usage. an empty Date never matches today.
type UsageCounter struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// returns the calendar day of t in UTC
func Today(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// returns how many sends the user has left today. may be negative.
func Remaining(policy tiers.Policy, usage UsageCounter, today string) int {
	if usage.Date == today {
		return policy.QueryLimit - usage.Count
	}

	return policy.QueryLimit
}

func Exhausted(policy tiers.Policy, usage UsageCounter, today string) bool {
	return Remaining(policy, usage, today) <= 0
}

// Remaining clamped at zero, for display
func Display(policy tiers.Policy, usage UsageCounter, today string) int {
	return max(Remaining(policy, usage, today), 0)
}

// returns the counter after one successful generation
func Advance(usage UsageCounter, today string) UsageCounter {
	if usage.Date == today {
		return UsageCounter{Date: today, Count: usage.Count + 1}
	}

	return UsageCounter{Date: today, Count: 1}
}
