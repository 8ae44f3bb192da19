// Package replenishment turns an evaluated stock state into an order or transfer
// recommendation with an auditable reasoning trace.
package replenishment

import (
	"strconv"
	"strings"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/shopspring/decimal"
)

// bufferDays is added to the lead time when sizing the target stock.
const bufferDays = 3

var hoursPerDay = decimal.NewFromInt(24)

type Calculator struct{}

func NewCalculator() *Calculator {
	return &Calculator{}
}

// Recommend sizes a replenishment for state. Identical inputs always produce an
// identical recommendation, reasoning included.
func (c *Calculator) Recommend(state model.StockState, v model.SalesVelocity) model.ReplenishmentRecommendation {
	th := state.Thresholds
	pack := decimal.NewFromFloat(th.PackSize)
	if !pack.IsPositive() {
		pack = decimal.NewFromInt(1)
	}
	ewma := decimal.NewFromFloat(v.EWMA)
	if ewma.IsNegative() {
		ewma = decimal.Zero
	}
	available := decimal.NewFromFloat(state.Available)
	reorderPoint := decimal.NewFromFloat(th.ReorderPoint)
	safety := decimal.NewFromFloat(th.SafetyStock)

	daily := ewma.Mul(hoursPerDay)
	days := th.LeadTimeDays + bufferDays
	target := daily.Mul(decimal.NewFromInt(int64(days))).Ceil().Add(safety)

	raw := target.Sub(available)
	if raw.IsNegative() {
		raw = decimal.Zero
	}
	needed := roundUp(raw, pack)

	var trace strings.Builder
	trace.WriteString("daily=" + num(daily) + " (ewma " + num(ewma) + "/h x 24)")
	trace.WriteString("; coverage_days=" + strconv.Itoa(days) + " (lead " + strconv.Itoa(th.LeadTimeDays) + " + buffer " + strconv.Itoa(bufferDays) + ")")
	trace.WriteString("; target=ceil(" + num(daily) + " x " + strconv.Itoa(days) + ") + safety " + num(safety) + " = " + num(target))
	trace.WriteString("; available=" + num(available))
	trace.WriteString("; needed=max(0, " + num(target) + " - " + num(available) + ") = " + num(raw))
	trace.WriteString("; pack=" + num(pack) + " -> " + num(needed))

	if needed.IsPositive() && needed.LessThan(reorderPoint) {
		raised := roundUp(reorderPoint, pack)
		trace.WriteString("; below reorder point " + num(reorderPoint) + " -> " + num(raised))
		needed = raised
	}

	rec := model.ReplenishmentRecommendation{
		LocationID:         state.LocationID,
		ItemID:             state.ItemID,
		DailyConsumption:   daily.InexactFloat64(),
		TargetCoverageDays: days,
		TargetStock:        target.InexactFloat64(),
		SuggestedQty:       needed.InexactFloat64(),
		Urgency:            urgencyFor(state.Severity),
		Action:             model.ActionOrder,
	}
	trace.WriteString("; severity=" + string(state.Severity) + " -> urgency=" + string(rec.Urgency))

	if rec.Urgency == model.UrgencyImmediate && th.LeadTimeDays > 0 {
		rec.Action = model.ActionTransfer
		if len(state.Alternatives) > 0 {
			rec.TransferFrom = state.Alternatives[0].LocationID
			trace.WriteString("; action=transfer from " + rec.TransferFrom + " (" + strconv.FormatFloat(state.Alternatives[0].Available, 'f', -1, 64) + " available)")
		} else {
			trace.WriteString("; action=transfer (lead " + strconv.Itoa(th.LeadTimeDays) + "d, no sibling stock)")
		}
	} else {
		trace.WriteString("; action=order")
	}
	rec.Reasoning = trace.String()
	return rec
}

func urgencyFor(s model.Severity) model.Urgency {
	switch s {
	case model.SeverityCritical:
		return model.UrgencyImmediate
	case model.SeverityWarning:
		return model.UrgencyToday
	}
	return model.UrgencyPlanned
}

// roundUp rounds q up to the next multiple of pack.
func roundUp(q, pack decimal.Decimal) decimal.Decimal {
	if !q.IsPositive() {
		return decimal.Zero
	}
	return q.Div(pack).Ceil().Mul(pack)
}

func num(d decimal.Decimal) string {
	return d.String()
}
