// Package stockstate classifies the stock of an item at a location from the ledger,
// the threshold registry and the item's sales velocity.
package stockstate

import (
	"context"
	"errors"
	"sort"

	"github.com/fekuna/omnipos-stock-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/pkg/clock"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Ledger interface {
	GetRecord(ctx context.Context, locationID, itemID string) (*model.InventoryRecord, error)
	ListRecords(ctx context.Context, filters *dto.RecordFilters) ([]model.InventoryRecord, error)
}

type ThresholdSource interface {
	Get(ctx context.Context, itemID, locationID string) (model.Thresholds, error)
}

type VelocitySource interface {
	CalculateVelocity(ctx context.Context, itemID, locationID string) (model.SalesVelocity, error)
}

type Catalog interface {
	GetItem(ctx context.Context, id string) (*model.Item, error)
	ListLocations(ctx context.Context, activeOnly bool) ([]model.Location, error)
}

type Evaluator struct {
	ledger     Ledger
	thresholds ThresholdSource
	velocity   VelocitySource
	catalog    Catalog
	clock      clock.Clock
	// altFloor is the minimum available stock for a sibling location to be
	// offered as a transfer source.
	altFloor float64
	tracer   trace.Tracer
	logger   logger.ZapLogger
}

func NewEvaluator(ledger Ledger, thresholds ThresholdSource, velocity VelocitySource, catalog Catalog, clk clock.Clock, altFloor float64, log logger.ZapLogger) *Evaluator {
	if altFloor <= 0 {
		altFloor = 1
	}
	return &Evaluator{
		ledger:     ledger,
		thresholds: thresholds,
		velocity:   velocity,
		catalog:    catalog,
		clock:      clk,
		altFloor:   altFloor,
		tracer:     otel.Tracer("omnipos-stock-service/stockstate"),
		logger:     log,
	}
}

// Evaluate recomputes the state of itemID at locationID. A nil th uses the
// registry's effective thresholds.
func (e *Evaluator) Evaluate(ctx context.Context, locationID, itemID string, th *model.Thresholds) (*model.StockState, error) {
	ctx, span := e.tracer.Start(ctx, "stockstate.evaluate", trace.WithAttributes(
		attribute.String("location.id", locationID),
		attribute.String("item.id", itemID),
	))
	defer span.End()

	rec, err := e.ledger.GetRecord(ctx, locationID, itemID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = &model.InventoryRecord{LocationID: locationID, ItemID: itemID}
	}
	return e.evaluateRecord(ctx, *rec, th)
}

// EvaluateAll evaluates the item at every location that holds a record for it,
// skipping locations marked inactive.
func (e *Evaluator) EvaluateAll(ctx context.Context, itemID string) ([]model.StockState, error) {
	recs, err := e.ledger.ListRecords(ctx, &dto.RecordFilters{ItemID: itemID})
	if err != nil {
		return nil, err
	}
	inactive, err := e.inactiveLocations(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]model.StockState, 0, len(recs))
	for _, rec := range recs {
		if _, skip := inactive[rec.LocationID]; skip {
			continue
		}
		s, err := e.evaluateRecord(ctx, rec, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, nil
}

// Alternatives lists other active locations holding at least the floor of
// available stock, most stocked first.
func (e *Evaluator) Alternatives(ctx context.Context, itemID, excludeLocationID string) ([]model.AlternativeLocation, error) {
	locs, err := e.catalog.ListLocations(ctx, true)
	if err != nil {
		return nil, err
	}
	var out []model.AlternativeLocation
	for _, loc := range locs {
		if loc.ID == excludeLocationID {
			continue
		}
		rec, err := e.ledger.GetRecord(ctx, loc.ID, itemID)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			continue
		}
		if avail := rec.Available(); avail >= e.altFloor {
			out = append(out, model.AlternativeLocation{LocationID: loc.ID, LocationName: loc.Name, Available: avail})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Available == out[j].Available {
			return out[i].LocationID < out[j].LocationID
		}
		return out[i].Available > out[j].Available
	})
	return out, nil
}

func (e *Evaluator) evaluateRecord(ctx context.Context, rec model.InventoryRecord, th *model.Thresholds) (*model.StockState, error) {
	var effective model.Thresholds
	if th != nil {
		effective = *th
	} else {
		t, err := e.thresholds.Get(ctx, rec.ItemID, rec.LocationID)
		if err != nil {
			return nil, err
		}
		effective = t
	}

	v, err := e.velocity.CalculateVelocity(ctx, rec.ItemID, rec.LocationID)
	if err != nil {
		return nil, err
	}

	s := Classify(rec, effective, v, e.clock.Now())
	s.ItemName = rec.ItemID
	if item, err := e.catalog.GetItem(ctx, rec.ItemID); err == nil && item.Name != "" {
		s.ItemName = item.Name
	} else if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	alts, err := e.Alternatives(ctx, rec.ItemID, rec.LocationID)
	if err != nil {
		return nil, err
	}
	s.Alternatives = alts
	return &s, nil
}

func (e *Evaluator) inactiveLocations(ctx context.Context) (map[string]struct{}, error) {
	all, err := e.catalog.ListLocations(ctx, false)
	if err != nil {
		return nil, err
	}
	inactive := make(map[string]struct{})
	for _, l := range all {
		if !l.Active {
			inactive[l.ID] = struct{}{}
		}
	}
	return inactive, nil
}
