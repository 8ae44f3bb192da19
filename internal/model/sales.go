package model

import "time"

type SalesEvent struct {
	ItemID     string    `json:"item_id"`
	LocationID string    `json:"location_id,omitempty"`
	Quantity   float64   `json:"quantity"`
	At         time.Time `json:"at"`
}

type Trend string

const (
	TrendRising  Trend = "rising"
	TrendStable  Trend = "stable"
	TrendFalling Trend = "falling"
)

// SalesVelocity is derived on demand and never persisted. When PeakInferred is
// false the peak fields hold fixed defaults, not observations.
type SalesVelocity struct {
	ItemID        string       `json:"item_id"`
	LocationID    string       `json:"location_id,omitempty"`
	Last1h        float64      `json:"last_1h"`
	Last2h        float64      `json:"last_2h"`
	Last4h        float64      `json:"last_4h"`
	Last24h       float64      `json:"last_24h"`
	EWMA          float64      `json:"ewma"`
	Trend         Trend        `json:"trend"`
	PeakHour      int          `json:"peak_hour"`
	PeakDayOfWeek time.Weekday `json:"peak_day_of_week"`
	PeakInferred  bool         `json:"peak_inferred"`
}
