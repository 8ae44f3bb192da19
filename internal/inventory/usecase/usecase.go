package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/inventory"
	"github.com/fekuna/omnipos-stock-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/pkg/clock"
	"github.com/fekuna/omnipos-stock-service/pkg/keylock"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type inventoryUseCase struct {
	repo   inventory.Repository
	locks  keylock.Locker
	clock  clock.Clock
	tracer trace.Tracer
	logger logger.ZapLogger
}

func NewInventoryUseCase(repo inventory.Repository, locks keylock.Locker, clk clock.Clock, log logger.ZapLogger) inventory.UseCase {
	return &inventoryUseCase{
		repo:   repo,
		locks:  locks,
		clock:  clk,
		tracer: otel.Tracer("omnipos-stock-service/inventory"),
		logger: log,
	}
}

func lockKey(locationID, itemID string) string {
	return "inventory:" + locationID + ":" + itemID
}

func (uc *inventoryUseCase) GetRecord(ctx context.Context, locationID, itemID string) (*model.InventoryRecord, error) {
	rec, err := uc.repo.GetRecord(ctx, locationID, itemID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		// Unknown pairs read as an empty record rather than an error.
		return &model.InventoryRecord{LocationID: locationID, ItemID: itemID}, nil
	}
	return rec, nil
}

func (uc *inventoryUseCase) ListRecords(ctx context.Context, filters *dto.RecordFilters) ([]model.InventoryRecord, error) {
	return uc.repo.ListRecords(ctx, filters)
}

func (uc *inventoryUseCase) RecordSale(ctx context.Context, input *dto.SaleInput) (*model.InventoryRecord, error) {
	if input.Quantity == 0 {
		return nil, model.ErrInvalidQuantity
	}
	return uc.apply(ctx, input.LocationID, input.ItemID, model.MovementSale, -input.Quantity, input.ReferenceID, "")
}

func (uc *inventoryUseCase) Restock(ctx context.Context, input *dto.RestockInput) (*model.InventoryRecord, error) {
	if input.Quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}
	return uc.apply(ctx, input.LocationID, input.ItemID, model.MovementRestock, input.Quantity, input.ReferenceID, input.Notes)
}

func (uc *inventoryUseCase) AdjustInventory(ctx context.Context, input *dto.AdjustInventoryInput) (*model.InventoryRecord, error) {
	if input.QuantityChange == 0 {
		return nil, model.ErrInvalidQuantity
	}
	return uc.apply(ctx, input.LocationID, input.ItemID, model.MovementAdjustment, input.QuantityChange, input.ReferenceID, input.Reason)
}

func (uc *inventoryUseCase) apply(ctx context.Context, locationID, itemID string, kind model.MovementType, delta float64, referenceID, notes string) (*model.InventoryRecord, error) {
	if err := validateKeys(locationID, itemID); err != nil {
		return nil, err
	}

	ctx, span := uc.tracer.Start(ctx, "inventory.apply",
		trace.WithAttributes(
			attribute.String("location.id", locationID),
			attribute.String("item.id", itemID),
			attribute.String("movement.type", string(kind)),
			attribute.Float64("movement.delta", delta),
		),
	)
	defer span.End()

	unlock, err := uc.locks.Lock(ctx, lockKey(locationID, itemID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	rec, err := uc.GetRecord(ctx, locationID, itemID)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	quantityBefore := rec.Quantity
	rec.Quantity = addQuantity(rec.Quantity, delta)
	rec.NegativeStock = rec.Quantity < 0
	rec.UpdatedAt = now
	switch kind {
	case model.MovementSale:
		rec.LastSaleAt = &now
	case model.MovementRestock:
		rec.LastRestockedAt = &now
	}

	movement := uc.newMovement(ctx, rec, kind, delta, quantityBefore, now)
	movement.ReferenceID = optional(referenceID)
	movement.Notes = notes

	if err := uc.repo.AdjustStockWithMovement(ctx, rec, movement); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if rec.NegativeStock {
		uc.logger.Warn("Inventory went negative",
			zap.String("location_id", locationID),
			zap.String("item_id", itemID),
			zap.Float64("quantity", rec.Quantity),
			zap.String("movement_type", string(kind)),
		)
	}
	return rec, nil
}

func (uc *inventoryUseCase) TransferInventory(ctx context.Context, input *dto.TransferInventoryInput) (*dto.TransferResult, error) {
	if input.Quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}
	if err := validateKeys(input.SourceLocationID, input.ItemID); err != nil {
		return nil, err
	}
	if err := validateKeys(input.TargetLocationID, input.ItemID); err != nil {
		return nil, err
	}
	if input.SourceLocationID == input.TargetLocationID {
		return nil, &model.ValidationError{Field: "target_location_id", Reason: "must differ from source"}
	}

	ctx, span := uc.tracer.Start(ctx, "inventory.transfer",
		trace.WithAttributes(
			attribute.String("source.location.id", input.SourceLocationID),
			attribute.String("target.location.id", input.TargetLocationID),
			attribute.String("item.id", input.ItemID),
			attribute.Float64("quantity", input.Quantity),
		),
	)
	defer span.End()

	release, err := keylock.LockAll(ctx, uc.locks,
		lockKey(input.SourceLocationID, input.ItemID),
		lockKey(input.TargetLocationID, input.ItemID),
	)
	if err != nil {
		return nil, err
	}
	defer release()

	src, err := uc.GetRecord(ctx, input.SourceLocationID, input.ItemID)
	if err != nil {
		return nil, err
	}
	if src.Quantity < input.Quantity {
		err := &model.InsufficientStockError{
			LocationID: input.SourceLocationID,
			ItemID:     input.ItemID,
			Requested:  input.Quantity,
			Available:  src.Quantity,
		}
		span.SetAttributes(attribute.Bool("transfer.rejected", true))
		return nil, err
	}
	dst, err := uc.GetRecord(ctx, input.TargetLocationID, input.ItemID)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	srcBefore, dstBefore := src.Quantity, dst.Quantity
	src.Quantity = addQuantity(src.Quantity, -input.Quantity)
	src.NegativeStock = src.Quantity < 0
	src.UpdatedAt = now
	dst.Quantity = addQuantity(dst.Quantity, input.Quantity)
	dst.NegativeStock = dst.Quantity < 0
	dst.UpdatedAt = now

	out := uc.newMovement(ctx, src, model.MovementTransferOut, -input.Quantity, srcBefore, now)
	out.RelatedLocationID = optional(input.TargetLocationID)
	out.Notes = input.Reason
	in := uc.newMovement(ctx, dst, model.MovementTransferIn, input.Quantity, dstBefore, now)
	in.RelatedLocationID = optional(input.SourceLocationID)
	in.Notes = input.Reason
	in.ReferenceID = optional(out.ID)
	out.ReferenceID = optional(in.ID)

	if err := uc.repo.TransferWithMovements(ctx, src, dst, out, in); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	uc.logger.Info("Stock transferred",
		zap.String("item_id", input.ItemID),
		zap.String("from", input.SourceLocationID),
		zap.String("to", input.TargetLocationID),
		zap.Float64("quantity", input.Quantity),
	)
	return &dto.TransferResult{Source: *src, Destination: *dst, Out: *out, In: *in}, nil
}

func (uc *inventoryUseCase) SetStockLimits(ctx context.Context, input *dto.StockLimitsInput) (*model.InventoryRecord, error) {
	if err := validateKeys(input.LocationID, input.ItemID); err != nil {
		return nil, err
	}
	if input.MinStock < 0 || input.MaxStock < 0 {
		return nil, &model.ValidationError{Field: "min_stock", Reason: "limits must not be negative"}
	}
	if input.MaxStock > 0 && input.MinStock > input.MaxStock {
		return nil, &model.ValidationError{Field: "min_stock", Reason: "must not exceed max_stock"}
	}

	unlock, err := uc.locks.Lock(ctx, lockKey(input.LocationID, input.ItemID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	rec, err := uc.GetRecord(ctx, input.LocationID, input.ItemID)
	if err != nil {
		return nil, err
	}
	rec.MinStock = input.MinStock
	rec.MaxStock = input.MaxStock
	rec.UpdatedAt = uc.clock.Now()
	if err := uc.repo.SaveRecord(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (uc *inventoryUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error) {
	return uc.repo.ListMovements(ctx, filters)
}

func (uc *inventoryUseCase) newMovement(ctx context.Context, rec *model.InventoryRecord, kind model.MovementType, delta, before float64, at time.Time) *model.StockMovement {
	return &model.StockMovement{
		ID:             uuid.New().String(),
		LocationID:     rec.LocationID,
		ItemID:         rec.ItemID,
		MovementType:   kind,
		QuantityChange: delta,
		QuantityBefore: before,
		QuantityAfter:  rec.Quantity,
		CreatedAt:      at,
		CreatedBy:      optional(auth.GetUserID(ctx)),
	}
}

// addQuantity sums in decimal so long movement histories reconstruct exactly.
func addQuantity(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).InexactFloat64()
}

func validateKeys(locationID, itemID string) error {
	if strings.TrimSpace(locationID) == "" {
		return &model.ValidationError{Field: "location_id", Reason: "is required"}
	}
	if strings.TrimSpace(itemID) == "" {
		return &model.ValidationError{Field: "item_id", Reason: "is required"}
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
