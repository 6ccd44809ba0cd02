package quota

import (
	"testing"
	"time"

	"codeberg.org/qemxa/server/internal/tiers"
	"github.com/stretchr/testify/assert"
)

func TestRemaining(t *testing.T) {
	free := tiers.Free.Policy()

	tests := []struct {
		name  string
		usage UsageCounter
		today string
		want  int
	}{
		{"same day", UsageCounter{"2024-05-01", 3}, "2024-05-01", 2},
		{"at limit", UsageCounter{"2024-05-01", 5}, "2024-05-01", 0},
		{"over limit after downgrade", UsageCounter{"2024-05-01", 30}, "2024-05-01", -25},
		{"earlier day resets", UsageCounter{"2024-04-30", 5}, "2024-05-01", 5},
		{"empty counter", UsageCounter{}, "2024-05-01", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Remaining(free, tt.usage, tt.today))
		})
	}
}

func TestExhaustedAndDisplay(t *testing.T) {
	free := tiers.Free.Policy()
	usage := UsageCounter{"2024-05-01", 30}

	assert.True(t, Exhausted(free, usage, "2024-05-01"))
	assert.Equal(t, 0, Display(free, usage, "2024-05-01"))
	assert.False(t, Exhausted(free, usage, "2024-05-02"))
}

func TestAdvance(t *testing.T) {
	assert.Equal(t, UsageCounter{"2024-05-01", 4}, Advance(UsageCounter{"2024-05-01", 3}, "2024-05-01"))
	assert.Equal(t, UsageCounter{"2024-05-01", 1}, Advance(UsageCounter{"2024-04-30", 5}, "2024-05-01"))
	assert.Equal(t, UsageCounter{"2024-05-01", 1}, Advance(UsageCounter{}, "2024-05-01"))
}

func TestTodayUsesUTC(t *testing.T) {
	tbilisi := time.FixedZone("GET", 4*60*60)
	local := time.Date(2024, 5, 2, 2, 30, 0, 0, tbilisi)

	assert.Equal(t, "2024-05-01", Today(local))
}
