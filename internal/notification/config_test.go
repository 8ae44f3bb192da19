package notification

import (
	"testing"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(h, m int) time.Time {
	return time.Date(2026, 3, 6, h, m, 0, 0, time.UTC)
}

func TestQuietHours_Contains(t *testing.T) {
	overnight := QuietHours{Enabled: true, Start: 22 * 60, End: 7 * 60}
	daytime := QuietHours{Enabled: true, Start: 13 * 60, End: 15 * 60}

	testCases := []struct {
		name string
		q    QuietHours
		t    time.Time
		want bool
	}{
		{"overnight late", overnight, at(23, 30), true},
		{"overnight start edge", overnight, at(22, 0), true},
		{"overnight early", overnight, at(3, 0), true},
		{"overnight end edge", overnight, at(7, 0), false},
		{"overnight midday", overnight, at(12, 0), false},
		{"daytime inside", daytime, at(14, 0), true},
		{"daytime outside", daytime, at(16, 0), false},
		{"disabled", QuietHours{Start: 0, End: 23 * 60}, at(12, 0), false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.q.Contains(tc.t))
		})
	}
}

func TestQuietHours_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	q := QuietHours{Enabled: true, Start: 22 * 60, End: 7 * 60, Location: loc}
	// 20:00 UTC is 23:00 local.
	assert.True(t, q.Contains(at(20, 0)))
}

func TestParseClock(t *testing.T) {
	m, err := ParseClock("07:30")
	require.NoError(t, err)
	assert.Equal(t, 450, m)

	for _, bad := range []string{"7", "24:00", "10:61", "ab:cd"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestConfig_Cooldown(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, 15*time.Minute, c.Cooldown(model.SeverityCritical))

	c.Cooldowns = map[model.Severity]time.Duration{model.SeverityWarning: time.Minute}
	assert.Equal(t, time.Minute, c.Cooldown(model.SeverityWarning))
	assert.Equal(t, 120*time.Minute, c.Cooldown(model.SeverityInfo))
}

func TestStats_Snapshot(t *testing.T) {
	s := NewStats()
	s.Decision(ReasonNotified)
	s.Decision(ReasonCooldown)
	s.Decision(ReasonCooldown)
	s.Failed()

	snap := s.Snapshot()
	assert.Equal(t, 1, snap.Notified)
	assert.Equal(t, 2, snap.Suppressed[ReasonCooldown])
	assert.Equal(t, 1, snap.DeliveryFailures)
}
