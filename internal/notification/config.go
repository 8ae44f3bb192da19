package notification

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type QuietHours struct {
	Enabled bool
	// Start and End are minutes after midnight. Start > End spans midnight.
	Start    int
	End      int
	Location *time.Location
}

// Contains reports whether t falls inside the quiet window. The start minute is
// inside, the end minute is not.
func (q QuietHours) Contains(t time.Time) bool {
	if !q.Enabled || q.Start == q.End {
		return false
	}
	if q.Location != nil {
		t = t.In(q.Location)
	}
	m := t.Hour()*60 + t.Minute()
	if q.Start < q.End {
		return m >= q.Start && m < q.End
	}
	return m >= q.Start || m < q.End
}

// ParseClock parses "HH:MM" into minutes after midnight.
func ParseClock(s string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	hh, err := strconv.Atoi(h)
	if err != nil || hh < 0 || hh > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	mm, err := strconv.Atoi(m)
	if err != nil || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hh*60 + mm, nil
}

type Config struct {
	Enabled                bool
	Cooldowns              map[model.Severity]time.Duration
	QuietHours             QuietHours
	IgnoreQuietForCritical bool
	// AggregationWindow of zero delivers every alert on its own.
	AggregationWindow time.Duration
	EscalationAfter   time.Duration
	EscalationRole    model.Role
	DigestInterval    time.Duration
	InboxLimit        int
}

func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Cooldowns: map[model.Severity]time.Duration{
			model.SeverityInfo:     120 * time.Minute,
			model.SeverityWarning:  60 * time.Minute,
			model.SeverityCritical: 15 * time.Minute,
		},
		QuietHours:             QuietHours{Start: 22 * 60, End: 7 * 60, Location: time.UTC},
		IgnoreQuietForCritical: true,
		AggregationWindow:      30 * time.Second,
		EscalationAfter:        10 * time.Minute,
		EscalationRole:         model.RoleOwner,
		DigestInterval:         time.Hour,
		InboxLimit:             500,
	}
}

// Cooldown returns the suppression window after an alert of severity s.
func (c Config) Cooldown(s model.Severity) time.Duration {
	if d, ok := c.Cooldowns[s]; ok {
		return d
	}
	return DefaultConfig().Cooldowns[s]
}
