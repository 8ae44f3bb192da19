package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/velocity"
	"github.com/fekuna/omnipos-stock-service/pkg/clock"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"go.uber.org/zap"
)

const (
	// Retention is how long sale events are kept.
	Retention = 7 * 24 * time.Hour

	alpha           = 0.3
	trendBand       = 0.2
	defaultPeakHour = 22
	defaultPeakDay  = time.Friday
)

type tracker struct {
	repo   velocity.Repository
	clock  clock.Clock
	logger logger.ZapLogger
}

func NewTracker(repo velocity.Repository, clk clock.Clock, log logger.ZapLogger) velocity.UseCase {
	return &tracker{repo: repo, clock: clk, logger: log}
}

func (t *tracker) RecordSale(ctx context.Context, itemID string, quantity float64, locationID string) error {
	if strings.TrimSpace(itemID) == "" {
		return &model.ValidationError{Field: "item_id", Reason: "is required"}
	}
	now := t.clock.Now()
	ev := model.SalesEvent{ItemID: itemID, LocationID: locationID, Quantity: quantity, At: now}
	if err := t.repo.AppendEvent(ctx, ev, now.Add(-Retention)); err != nil {
		return err
	}
	t.logger.Debug("Sale recorded",
		zap.String("item_id", itemID),
		zap.String("location_id", locationID),
		zap.Float64("quantity", quantity),
	)
	return nil
}

func (t *tracker) CalculateVelocity(ctx context.Context, itemID, locationID string) (model.SalesVelocity, error) {
	events, err := t.repo.ListEvents(ctx, itemID)
	if err != nil {
		return model.SalesVelocity{}, err
	}
	return Compute(itemID, locationID, events, t.clock.Now()), nil
}

// Compute derives the velocity of itemID at now from events. Events outside the
// retention window, from other locations (when locationID is set) or in the
// future are ignored.
func Compute(itemID, locationID string, events []model.SalesEvent, now time.Time) model.SalesVelocity {
	v := model.SalesVelocity{
		ItemID:        itemID,
		LocationID:    locationID,
		Trend:         model.TrendStable,
		PeakHour:      defaultPeakHour,
		PeakDayOfWeek: defaultPeakDay,
	}

	var byHour [24]float64
	var byDay [7]float64
	seen := false
	cutoff := now.Add(-Retention)
	for _, e := range events {
		if locationID != "" && e.LocationID != locationID {
			continue
		}
		if !e.At.After(cutoff) || e.At.After(now) {
			continue
		}
		age := now.Sub(e.At)
		if age < time.Hour {
			v.Last1h += e.Quantity
		}
		if age < 2*time.Hour {
			v.Last2h += e.Quantity
		}
		if age < 4*time.Hour {
			v.Last4h += e.Quantity
		}
		if age < 24*time.Hour {
			v.Last24h += e.Quantity
		}
		local := e.At.In(now.Location())
		byHour[local.Hour()] += e.Quantity
		byDay[local.Weekday()] += e.Quantity
		seen = true
	}

	rates := []float64{v.Last24h / 24, v.Last4h / 4, v.Last2h / 2, v.Last1h}
	v.EWMA = rates[0]
	for _, r := range rates[1:] {
		v.EWMA = alpha*r + (1-alpha)*v.EWMA
	}

	recent := v.Last2h / 2
	older := (v.Last24h - v.Last2h) / 22
	switch {
	case recent > older*(1+trendBand):
		v.Trend = model.TrendRising
	case recent < older*(1-trendBand):
		v.Trend = model.TrendFalling
	}

	if seen {
		if h, ok := argmax(byHour[:]); ok {
			d, _ := argmax(byDay[:])
			v.PeakHour = h
			v.PeakDayOfWeek = time.Weekday(d)
			v.PeakInferred = true
		}
	}
	return v
}

// argmax returns the first index holding the largest positive value.
func argmax(xs []float64) (int, bool) {
	best, idx := 0.0, -1
	for i, x := range xs {
		if x > best {
			best, idx = x, i
		}
	}
	return idx, idx >= 0
}

// Disabled reports zero velocity for every item. It turns the engine into a plain
// threshold checker.
type Disabled struct{}

func (Disabled) RecordSale(context.Context, string, float64, string) error { return nil }

func (Disabled) CalculateVelocity(_ context.Context, itemID, locationID string) (model.SalesVelocity, error) {
	return model.SalesVelocity{
		ItemID:        itemID,
		LocationID:    locationID,
		Trend:         model.TrendStable,
		PeakHour:      defaultPeakHour,
		PeakDayOfWeek: defaultPeakDay,
	}, nil
}
