package inventory

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type Repository interface {
	// Records
	GetRecord(ctx context.Context, locationID, itemID string) (*model.InventoryRecord, error)
	ListRecords(ctx context.Context, filters *dto.RecordFilters) ([]model.InventoryRecord, error)
	SaveRecord(ctx context.Context, rec *model.InventoryRecord) error

	// Movements / Audit
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)

	// All-or-nothing writes
	AdjustStockWithMovement(ctx context.Context, rec *model.InventoryRecord, movement *model.StockMovement) error
	TransferWithMovements(ctx context.Context, src, dst *model.InventoryRecord, out, in *model.StockMovement) error
}
