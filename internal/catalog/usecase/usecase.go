package usecase

import (
	"context"
	"strings"

	"github.com/fekuna/omnipos-stock-service/internal/catalog"
	"github.com/fekuna/omnipos-stock-service/internal/catalog/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"go.uber.org/zap"
)

type catalogUseCase struct {
	repo      catalog.Repository
	monitored map[string]struct{}
	logger    logger.ZapLogger
}

// NewCatalogUseCase builds the catalog service. monitoredCategories is the alert
// allowlist; an empty list monitors every item.
func NewCatalogUseCase(repo catalog.Repository, monitoredCategories []string, log logger.ZapLogger) catalog.UseCase {
	monitored := make(map[string]struct{}, len(monitoredCategories))
	for _, c := range monitoredCategories {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			monitored[c] = struct{}{}
		}
	}
	return &catalogUseCase{repo: repo, monitored: monitored, logger: log}
}

func (uc *catalogUseCase) UpsertItem(ctx context.Context, input *dto.UpsertItemInput) (*model.Item, error) {
	if strings.TrimSpace(input.ID) == "" {
		return nil, &model.ValidationError{Field: "id", Reason: "is required"}
	}
	item := &model.Item{
		ID:       input.ID,
		Name:     input.Name,
		Category: input.Category,
		Unit:     input.Unit,
	}
	if item.Name == "" {
		item.Name = item.ID
	}
	if err := uc.repo.SaveItem(ctx, item); err != nil {
		return nil, err
	}
	uc.logger.Debug("Item saved", zap.String("item_id", item.ID), zap.String("category", item.Category))
	return item, nil
}

func (uc *catalogUseCase) GetItem(ctx context.Context, id string) (*model.Item, error) {
	item, err := uc.repo.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, model.ErrNotFound
	}
	return item, nil
}

func (uc *catalogUseCase) ListItems(ctx context.Context) ([]model.Item, error) {
	return uc.repo.ListItems(ctx)
}

func (uc *catalogUseCase) UpsertLocation(ctx context.Context, input *dto.UpsertLocationInput) (*model.Location, error) {
	if strings.TrimSpace(input.ID) == "" {
		return nil, &model.ValidationError{Field: "id", Reason: "is required"}
	}

	existing, err := uc.repo.GetLocation(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	loc := &model.Location{ID: input.ID, Name: input.Name, Active: true}
	if existing != nil {
		loc.Active = existing.Active
		if loc.Name == "" {
			loc.Name = existing.Name
		}
	}
	if input.Active != nil {
		loc.Active = *input.Active
	}
	if loc.Name == "" {
		loc.Name = loc.ID
	}

	if err := uc.repo.SaveLocation(ctx, loc); err != nil {
		return nil, err
	}
	return loc, nil
}

func (uc *catalogUseCase) GetLocation(ctx context.Context, id string) (*model.Location, error) {
	loc, err := uc.repo.GetLocation(ctx, id)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, model.ErrNotFound
	}
	return loc, nil
}

func (uc *catalogUseCase) ListLocations(ctx context.Context, activeOnly bool) ([]model.Location, error) {
	locs, err := uc.repo.ListLocations(ctx)
	if err != nil {
		return nil, err
	}
	if !activeOnly {
		return locs, nil
	}
	active := locs[:0]
	for _, l := range locs {
		if l.Active {
			active = append(active, l)
		}
	}
	return active, nil
}

func (uc *catalogUseCase) IsMonitored(ctx context.Context, itemID string) (bool, error) {
	if len(uc.monitored) == 0 {
		return true, nil
	}
	item, err := uc.repo.GetItem(ctx, itemID)
	if err != nil {
		return false, err
	}
	if item == nil {
		return false, nil
	}
	_, ok := uc.monitored[strings.ToLower(item.Category)]
	return ok, nil
}
