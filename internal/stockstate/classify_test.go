package stockstate

import (
	"math"
	"testing"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var now = time.Date(2026, 3, 6, 21, 0, 0, 0, time.UTC)

func record(qty float64) model.InventoryRecord {
	return model.InventoryRecord{LocationID: "bar", ItemID: "gin", Quantity: qty}
}

func th(min, rp float64) model.Thresholds {
	return model.Thresholds{MinAbsolute: min, ReorderPoint: rp, SafetyStock: 10, LeadTimeDays: 2, PackSize: 1}
}

func vel(ewma float64, trend model.Trend) model.SalesVelocity {
	return model.SalesVelocity{EWMA: ewma, Trend: trend}
}

func TestClassify_SeverityRules(t *testing.T) {
	testCases := []struct {
		name string
		qty  float64
		th   model.Thresholds
		v    model.SalesVelocity
		want model.Severity
	}{
		{"out of stock", 0, th(0, 0), vel(0, model.TrendStable), model.SeverityCritical},
		{"negative stock", -3, th(0, 0), vel(0, model.TrendStable), model.SeverityCritical},
		{"below minimum", 4, th(5, 20), vel(0, model.TrendStable), model.SeverityCritical},
		{"under an hour of cover", 30, th(5, 20), vel(100, model.TrendStable), model.SeverityCritical},
		{"below reorder point", 15, th(5, 20), vel(0, model.TrendStable), model.SeverityWarning},
		{"under four hours of cover", 30, th(5, 20), vel(10, model.TrendStable), model.SeverityWarning},
		{"rising demand near reorder", 25, th(5, 20), vel(0, model.TrendRising), model.SeverityInfo},
		{"rising demand with headroom", 40, th(5, 20), vel(0, model.TrendRising), model.SeverityOK},
		{"healthy", 100, th(5, 20), vel(1, model.TrendStable), model.SeverityOK},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := Classify(record(tc.qty), tc.th, tc.v, now)
			assert.Equal(t, tc.want, s.Severity)
		})
	}
}

func TestClassify_WarningWithoutVelocity(t *testing.T) {
	s := Classify(record(15), th(5, 20), vel(0, model.TrendStable), now)

	assert.Equal(t, model.SeverityWarning, s.Severity)
	assert.Nil(t, s.CoverageHours)
	assert.Equal(t, 75, s.PercentOfReorder)
}

func TestClassify_CriticalWithZeroCoverage(t *testing.T) {
	s := Classify(record(2), th(5, 20), vel(10, model.TrendStable), now)

	assert.Equal(t, model.SeverityCritical, s.Severity)
	require.NotNil(t, s.CoverageHours)
	assert.Equal(t, 0, *s.CoverageHours)
}

func TestClassify_TinyVelocityDoesNotOverflowCoverage(t *testing.T) {
	testCases := []struct {
		name string
		qty  float64
		ewma float64
	}{
		{"large stock", 1e7, 1e-12},
		{"near-cancelled sale", 50, 1e-300},
		{"smallest positive rate", 100, math.SmallestNonzeroFloat64},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := Classify(record(tc.qty), th(5, 20), vel(tc.ewma, model.TrendStable), now)
			require.NotNil(t, s.CoverageHours)
			assert.Equal(t, math.MaxInt32, *s.CoverageHours)
			assert.Equal(t, model.SeverityOK, s.Severity)
		})
	}
}

func TestClassify_TinyReorderPointDoesNotOverflowPercent(t *testing.T) {
	s := Classify(record(100), th(0, 1e-300), vel(0, model.TrendStable), now)
	assert.Equal(t, math.MaxInt32, s.PercentOfReorder)
	assert.Equal(t, model.SeverityOK, s.Severity)
}

func TestClassify_PercentOfReorder(t *testing.T) {
	assert.Equal(t, 50, Classify(record(25), th(5, 50), vel(0, model.TrendStable), now).PercentOfReorder)
	assert.Equal(t, 100, Classify(record(25), th(0, 0), vel(0, model.TrendStable), now).PercentOfReorder)
}

func TestClassify_AvailableIncludesReservedAndInTransit(t *testing.T) {
	rec := record(10)
	rec.Reserved = 4
	rec.InTransit = 1
	s := Classify(rec, th(5, 20), vel(0, model.TrendStable), now)
	assert.Equal(t, 7.0, s.Available)
}

func TestClassify_NonPositiveAvailableIsAlwaysCritical(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		qty := rapid.Float64Range(-1000, 0).Draw(rt, "qty")
		min := rapid.Float64Range(0, 100).Draw(rt, "min")
		rp := min + rapid.Float64Range(0, 100).Draw(rt, "rp_gap")
		ewma := rapid.Float64Range(0, 50).Draw(rt, "ewma")
		trend := rapid.SampledFrom([]model.Trend{model.TrendRising, model.TrendStable, model.TrendFalling}).Draw(rt, "trend")

		s := Classify(record(qty), th(min, rp), vel(ewma, trend), now)
		if s.Severity != model.SeverityCritical {
			rt.Fatalf("available %v classified %s", s.Available, s.Severity)
		}
	})
}

func TestClassify_IsDeterministic(t *testing.T) {
	a := Classify(record(12), th(5, 20), vel(2.5, model.TrendRising), now)
	b := Classify(record(12), th(5, 20), vel(2.5, model.TrendRising), now)
	assert.Equal(t, a, b)
}
