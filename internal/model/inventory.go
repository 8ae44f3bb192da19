package model

import "time"

type Location struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Unit     string `json:"unit,omitempty"`
}

// InventoryRecord is the stock of one item at one location. Records are created on
// first write and never deleted. Quantity may go negative; NegativeStock flags it.
type InventoryRecord struct {
	LocationID      string     `json:"location_id"`
	ItemID          string     `json:"item_id"`
	Quantity        float64    `json:"quantity"`
	Reserved        float64    `json:"reserved"`
	InTransit       float64    `json:"in_transit"`
	MinStock        float64    `json:"min_stock"`
	MaxStock        float64    `json:"max_stock"`
	NegativeStock   bool       `json:"negative_stock"`
	LastRestockedAt *time.Time `json:"last_restocked_at,omitempty"`
	LastSaleAt      *time.Time `json:"last_sale_at,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Available is on-hand minus reserved plus in-transit.
func (r InventoryRecord) Available() float64 {
	return r.Quantity - r.Reserved + r.InTransit
}

type MovementType string

const (
	MovementSale        MovementType = "sale"
	MovementRestock     MovementType = "restock"
	MovementTransferIn  MovementType = "transfer_in"
	MovementTransferOut MovementType = "transfer_out"
	MovementAdjustment  MovementType = "adjustment"
)

// StockMovement is an immutable audit entry. QuantityChange is signed.
type StockMovement struct {
	ID                string       `json:"id"`
	LocationID        string       `json:"location_id"`
	ItemID            string       `json:"item_id"`
	MovementType      MovementType `json:"movement_type"`
	QuantityChange    float64      `json:"quantity_change"`
	QuantityBefore    float64      `json:"quantity_before"`
	QuantityAfter     float64      `json:"quantity_after"`
	RelatedLocationID *string      `json:"related_location_id,omitempty"`
	ReferenceID       *string      `json:"reference_id,omitempty"`
	Notes             string       `json:"notes,omitempty"`
	CreatedBy         *string      `json:"created_by,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
}
