package model

// Thresholds drive severity classification and replenishment sizing for an item.
type Thresholds struct {
	MinAbsolute  float64 `json:"min_absolute"`
	ReorderPoint float64 `json:"reorder_point"`
	SafetyStock  float64 `json:"safety_stock"`
	LeadTimeDays int     `json:"lead_time_days"`
	PackSize     float64 `json:"pack_size"`
}

// LocationThresholds overrides item thresholds at one location. Nil fields inherit.
type LocationThresholds struct {
	MinAbsolute  *float64 `json:"min_absolute,omitempty"`
	ReorderPoint *float64 `json:"reorder_point,omitempty"`
	SafetyStock  *float64 `json:"safety_stock,omitempty"`
	LeadTimeDays *int     `json:"lead_time_days,omitempty"`
	PackSize     *float64 `json:"pack_size,omitempty"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MinAbsolute:  5,
		ReorderPoint: 20,
		SafetyStock:  10,
		LeadTimeDays: 2,
		PackSize:     1,
	}
}

// Validate rejects misconfigured thresholds at write time.
func (t Thresholds) Validate() error {
	switch {
	case t.MinAbsolute < 0:
		return &ValidationError{Field: "min_absolute", Reason: "must not be negative"}
	case t.ReorderPoint < 0:
		return &ValidationError{Field: "reorder_point", Reason: "must not be negative"}
	case t.SafetyStock < 0:
		return &ValidationError{Field: "safety_stock", Reason: "must not be negative"}
	case t.LeadTimeDays < 0:
		return &ValidationError{Field: "lead_time_days", Reason: "must not be negative"}
	case t.PackSize <= 0:
		return &ValidationError{Field: "pack_size", Reason: "must be greater than zero"}
	case t.MinAbsolute > t.ReorderPoint:
		return &ValidationError{Field: "min_absolute", Reason: "must not exceed reorder_point"}
	}
	return nil
}
