package dto

import (
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type RecordFilters struct {
	LocationID string
	ItemID     string
}

type MovementFilters struct {
	LocationID   string
	ItemID       string
	MovementType model.MovementType
	StartDate    *time.Time
	EndDate      *time.Time
	Page         int
	PageSize     int
}

type TransferResult struct {
	Source      model.InventoryRecord `json:"source"`
	Destination model.InventoryRecord `json:"destination"`
	Out         model.StockMovement   `json:"out"`
	In          model.StockMovement   `json:"in"`
}
