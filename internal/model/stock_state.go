package model

import "time"

type Severity string

const (
	SeverityOK       Severity = "ok"
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Rank orders severities; unknown values rank below ok.
func (s Severity) Rank() int {
	switch s {
	case SeverityOK:
		return 0
	case SeverityInfo:
		return 1
	case SeverityWarning:
		return 2
	case SeverityCritical:
		return 3
	default:
		return -1
	}
}

func (s Severity) WorseThan(other Severity) bool {
	return s.Rank() > other.Rank()
}

func ParseSeverity(s string) (Severity, bool) {
	switch v := Severity(s); v {
	case SeverityOK, SeverityInfo, SeverityWarning, SeverityCritical:
		return v, true
	}
	return "", false
}

type AlternativeLocation struct {
	LocationID   string  `json:"location_id"`
	LocationName string  `json:"location_name"`
	Available    float64 `json:"available"`
}

// StockState is a point-in-time classification, recomputed on every query.
type StockState struct {
	LocationID       string                `json:"location_id"`
	ItemID           string                `json:"item_id"`
	ItemName         string                `json:"item_name,omitempty"`
	OnHand           float64               `json:"on_hand"`
	Reserved         float64               `json:"reserved"`
	InTransit        float64               `json:"in_transit"`
	Available        float64               `json:"available"`
	CoverageHours    *int                  `json:"coverage_hours"`
	PercentOfReorder int                   `json:"percent_of_reorder"`
	Severity         Severity              `json:"severity"`
	Thresholds       Thresholds            `json:"thresholds"`
	Velocity         SalesVelocity         `json:"velocity"`
	Alternatives     []AlternativeLocation `json:"alternatives"`
	NegativeStock    bool                  `json:"negative_stock"`
	EvaluatedAt      time.Time             `json:"evaluated_at"`
}
