package usecase

import (
	"context"
	"strings"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/threshold"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"go.uber.org/zap"
)

type thresholdUseCase struct {
	repo   threshold.Repository
	logger logger.ZapLogger
}

func NewThresholdUseCase(repo threshold.Repository, log logger.ZapLogger) threshold.UseCase {
	return &thresholdUseCase{repo: repo, logger: log}
}

func (uc *thresholdUseCase) GetDefault(ctx context.Context) (model.Thresholds, error) {
	def, err := uc.repo.GetDefault(ctx)
	if err != nil {
		return model.Thresholds{}, err
	}
	// A stored default that no longer validates is treated as corrupted.
	if def == nil || def.Validate() != nil {
		return model.DefaultThresholds(), nil
	}
	return *def, nil
}

func (uc *thresholdUseCase) Get(ctx context.Context, itemID, locationID string) (model.Thresholds, error) {
	base, err := uc.itemOrDefault(ctx, itemID)
	if err != nil {
		return model.Thresholds{}, err
	}
	if locationID == "" {
		return base, nil
	}
	o, err := uc.repo.GetOverride(ctx, itemID, locationID)
	if err != nil {
		return model.Thresholds{}, err
	}
	if o == nil {
		return base, nil
	}
	merged := applyOverride(base, *o)
	if merged.Validate() != nil {
		return base, nil
	}
	return merged, nil
}

func (uc *thresholdUseCase) SetDefault(ctx context.Context, t model.Thresholds) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return uc.repo.SaveDefault(ctx, t)
}

func (uc *thresholdUseCase) SetItem(ctx context.Context, itemID string, t model.Thresholds) error {
	if strings.TrimSpace(itemID) == "" {
		return &model.ValidationError{Field: "item_id", Reason: "is required"}
	}
	if err := t.Validate(); err != nil {
		return err
	}
	if err := uc.repo.SaveItem(ctx, itemID, t); err != nil {
		return err
	}
	uc.logger.Info("Thresholds updated",
		zap.String("item_id", itemID),
		zap.Float64("min_absolute", t.MinAbsolute),
		zap.Float64("reorder_point", t.ReorderPoint),
	)
	return nil
}

func (uc *thresholdUseCase) SetLocationOverride(ctx context.Context, itemID, locationID string, o model.LocationThresholds) (model.Thresholds, error) {
	if strings.TrimSpace(itemID) == "" {
		return model.Thresholds{}, &model.ValidationError{Field: "item_id", Reason: "is required"}
	}
	if strings.TrimSpace(locationID) == "" {
		return model.Thresholds{}, &model.ValidationError{Field: "location_id", Reason: "is required"}
	}
	base, err := uc.itemOrDefault(ctx, itemID)
	if err != nil {
		return model.Thresholds{}, err
	}
	merged := applyOverride(base, o)
	if err := merged.Validate(); err != nil {
		return model.Thresholds{}, err
	}
	if err := uc.repo.SaveOverride(ctx, itemID, locationID, o); err != nil {
		return model.Thresholds{}, err
	}
	return merged, nil
}

func (uc *thresholdUseCase) itemOrDefault(ctx context.Context, itemID string) (model.Thresholds, error) {
	t, err := uc.repo.GetItem(ctx, itemID)
	if err != nil {
		return model.Thresholds{}, err
	}
	if t == nil || t.Validate() != nil {
		return uc.GetDefault(ctx)
	}
	return *t, nil
}

// applyOverride layers o onto base. A location may lower the absolute minimum but
// never raise it above the item's.
func applyOverride(base model.Thresholds, o model.LocationThresholds) model.Thresholds {
	out := base
	if o.MinAbsolute != nil && *o.MinAbsolute < base.MinAbsolute {
		out.MinAbsolute = *o.MinAbsolute
	}
	if o.ReorderPoint != nil {
		out.ReorderPoint = *o.ReorderPoint
	}
	if o.SafetyStock != nil {
		out.SafetyStock = *o.SafetyStock
	}
	if o.LeadTimeDays != nil {
		out.LeadTimeDays = *o.LeadTimeDays
	}
	if o.PackSize != nil {
		out.PackSize = *o.PackSize
	}
	return out
}
