package dto

// SaleInput deducts Quantity. A negative quantity models a return.
type SaleInput struct {
	LocationID  string  `json:"location_id"`
	ItemID      string  `json:"item_id"`
	Quantity    float64 `json:"quantity"`
	ReferenceID string  `json:"reference_id"`
}

type RestockInput struct {
	LocationID  string  `json:"location_id"`
	ItemID      string  `json:"item_id"`
	Quantity    float64 `json:"quantity"`
	ReferenceID string  `json:"reference_id"`
	Notes       string  `json:"notes"`
}

type AdjustInventoryInput struct {
	LocationID     string  `json:"location_id"`
	ItemID         string  `json:"item_id"`
	QuantityChange float64 `json:"quantity_change"`
	Reason         string  `json:"reason"`
	ReferenceID    string  `json:"reference_id"`
}

type TransferInventoryInput struct {
	SourceLocationID string  `json:"source_location_id"`
	TargetLocationID string  `json:"target_location_id"`
	ItemID           string  `json:"item_id"`
	Quantity         float64 `json:"quantity"`
	Reason           string  `json:"reason"`
}

type StockLimitsInput struct {
	LocationID string  `json:"location_id"`
	ItemID     string  `json:"item_id"`
	MinStock   float64 `json:"min_stock"`
	MaxStock   float64 `json:"max_stock"`
}
