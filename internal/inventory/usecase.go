package inventory

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type UseCase interface {
	GetRecord(ctx context.Context, locationID, itemID string) (*model.InventoryRecord, error)
	ListRecords(ctx context.Context, filters *dto.RecordFilters) ([]model.InventoryRecord, error)
	RecordSale(ctx context.Context, input *dto.SaleInput) (*model.InventoryRecord, error)
	Restock(ctx context.Context, input *dto.RestockInput) (*model.InventoryRecord, error)
	AdjustInventory(ctx context.Context, input *dto.AdjustInventoryInput) (*model.InventoryRecord, error)
	TransferInventory(ctx context.Context, input *dto.TransferInventoryInput) (*dto.TransferResult, error)
	SetStockLimits(ctx context.Context, input *dto.StockLimitsInput) (*model.InventoryRecord, error)
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)
}
