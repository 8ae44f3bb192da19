package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThresholds_Validate(t *testing.T) {
	testCases := []struct {
		name  string
		mut   func(*Thresholds)
		field string
	}{
		{"defaults are valid", func(*Thresholds) {}, ""},
		{"negative min", func(t *Thresholds) { t.MinAbsolute = -1 }, "min_absolute"},
		{"negative reorder point", func(t *Thresholds) { t.ReorderPoint = -1 }, "reorder_point"},
		{"negative safety stock", func(t *Thresholds) { t.SafetyStock = -1 }, "safety_stock"},
		{"negative lead time", func(t *Thresholds) { t.LeadTimeDays = -1 }, "lead_time_days"},
		{"zero pack size", func(t *Thresholds) { t.PackSize = 0 }, "pack_size"},
		{"min above reorder point", func(t *Thresholds) { t.MinAbsolute = 30 }, "min_absolute"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			th := DefaultThresholds()
			tc.mut(&th)
			err := th.Validate()
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			if assert.True(t, errors.As(err, &vErr)) {
				assert.Equal(t, tc.field, vErr.Field)
			}
		})
	}
}

func TestSeverity_Ordering(t *testing.T) {
	assert.True(t, SeverityCritical.WorseThan(SeverityWarning))
	assert.True(t, SeverityWarning.WorseThan(SeverityInfo))
	assert.True(t, SeverityInfo.WorseThan(SeverityOK))
	assert.False(t, SeverityWarning.WorseThan(SeverityWarning))

	_, ok := ParseSeverity("severe")
	assert.False(t, ok)
}

func TestRole_FrontLine(t *testing.T) {
	assert.True(t, RoleBartender.IsFrontLine())
	assert.True(t, RoleCashier.IsFrontLine())
	assert.False(t, RoleManager.IsFrontLine())
	assert.False(t, RoleOwner.IsFrontLine())
}

func TestInsufficientStockError_Unwraps(t *testing.T) {
	err := error(&InsufficientStockError{LocationID: "bar", ItemID: "gin", Requested: 5, Available: 2})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, err.Error(), "requested 5, have 2")
}
