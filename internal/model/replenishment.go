package model

type Urgency string

const (
	UrgencyImmediate Urgency = "immediate"
	UrgencyToday     Urgency = "today"
	UrgencyPlanned   Urgency = "planned"
)

type Action string

const (
	ActionOrder    Action = "order"
	ActionTransfer Action = "transfer"
)

type ReplenishmentRecommendation struct {
	LocationID         string  `json:"location_id"`
	ItemID             string  `json:"item_id"`
	DailyConsumption   float64 `json:"daily_consumption"`
	TargetCoverageDays int     `json:"target_coverage_days"`
	TargetStock        float64 `json:"target_stock"`
	SuggestedQty       float64 `json:"suggested_qty"`
	Urgency            Urgency `json:"urgency"`
	Action             Action  `json:"action"`
	TransferFrom       string  `json:"transfer_from,omitempty"`
	Reasoning          string  `json:"reasoning"`
}
