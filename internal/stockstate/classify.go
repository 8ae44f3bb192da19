package stockstate

import (
	"math"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

// Round rounds half up, the way coverage and percentages are reported.
func Round(x float64) float64 {
	return math.Floor(x + 0.5)
}

// toInt rounds x and clamps it to the int32 range before converting, so huge
// ratios from a near-zero divisor stay large and positive.
func toInt(x float64) int {
	switch {
	case math.IsNaN(x):
		return 0
	case x >= math.MaxInt32:
		return math.MaxInt32
	case x <= math.MinInt32:
		return math.MinInt32
	}
	return int(Round(x))
}

// Classify builds the point-in-time state of rec. It never fails: missing velocity
// yields nil coverage and zero stock yields critical.
func Classify(rec model.InventoryRecord, th model.Thresholds, v model.SalesVelocity, now time.Time) model.StockState {
	available := rec.Available()
	s := model.StockState{
		LocationID:    rec.LocationID,
		ItemID:        rec.ItemID,
		OnHand:        rec.Quantity,
		Reserved:      rec.Reserved,
		InTransit:     rec.InTransit,
		Available:     available,
		Thresholds:    th,
		Velocity:      v,
		NegativeStock: rec.Quantity < 0,
		EvaluatedAt:   now,
	}

	if v.EWMA > 0 {
		h := toInt(available / v.EWMA)
		s.CoverageHours = &h
	}
	if th.ReorderPoint == 0 {
		s.PercentOfReorder = 100
	} else {
		s.PercentOfReorder = toInt(available / th.ReorderPoint * 100)
	}
	s.Severity = severity(s, th, v.Trend)
	return s
}

// severity applies the first matching rule.
func severity(s model.StockState, th model.Thresholds, trend model.Trend) model.Severity {
	cov := s.CoverageHours
	switch {
	case s.Available <= 0:
		return model.SeverityCritical
	case s.Available < th.MinAbsolute:
		return model.SeverityCritical
	case cov != nil && *cov < 1:
		return model.SeverityCritical
	case s.Available < th.ReorderPoint:
		return model.SeverityWarning
	case cov != nil && *cov < 4:
		return model.SeverityWarning
	case trend == model.TrendRising && s.PercentOfReorder < 150:
		return model.SeverityInfo
	}
	return model.SeverityOK
}
