// Package composer renders stock alerts into human-readable messages. An external
// text service may be used; the deterministic template is always the fallback.
package composer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"go.uber.org/zap"
)

const (
	SourceTemplate = "template"
	SourceService  = "composer"
)

type Composer interface {
	Compose(ctx context.Context, state model.StockState, rec model.ReplenishmentRecommendation, v model.SalesVelocity) (model.ComposedMessage, error)
}

// Template builds messages from the numeric state fields only. It never fails.
type Template struct{}

func (Template) Compose(_ context.Context, s model.StockState, rec model.ReplenishmentRecommendation, v model.SalesVelocity) (model.ComposedMessage, error) {
	name := s.ItemName
	if name == "" {
		name = s.ItemID
	}
	level := strings.ToUpper(string(s.Severity))

	var full strings.Builder
	fmt.Fprintf(&full, "%s at %s is %s: %s available (%d%% of reorder point %s)",
		name, s.LocationID, s.Severity, num(s.Available), s.PercentOfReorder, num(s.Thresholds.ReorderPoint))
	if s.CoverageHours != nil {
		fmt.Fprintf(&full, ", about %dh of cover at %s/h", *s.CoverageHours, strconv.FormatFloat(v.EWMA, 'f', 1, 64))
	}
	full.WriteString(".")

	action := suggestion(rec)
	if action != "" {
		full.WriteString(" Suggested: " + action + ".")
	}

	channel := fmt.Sprintf("[%s] %s@%s avail=%s", level, s.ItemID, s.LocationID, num(s.Available))
	if action != "" {
		channel += " -> " + action
	}

	return model.ComposedMessage{
		ShortMessage:   fmt.Sprintf("[%s] %s at %s: %s left", level, name, s.LocationID, num(s.Available)),
		FullMessage:    full.String(),
		ChannelMessage: channel,
		Explanation:    rec.Reasoning,
		Source:         SourceTemplate,
	}, nil
}

func suggestion(rec model.ReplenishmentRecommendation) string {
	if rec.SuggestedQty <= 0 {
		return ""
	}
	if rec.Action == model.ActionTransfer && rec.TransferFrom != "" {
		return fmt.Sprintf("transfer %s from %s (%s)", num(rec.SuggestedQty), rec.TransferFrom, rec.Urgency)
	}
	return fmt.Sprintf("%s %s (%s)", rec.Action, num(rec.SuggestedQty), rec.Urgency)
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// fallback wraps a primary composer with a timeout and the template.
type fallback struct {
	primary  Composer
	template Template
	timeout  time.Duration
	logger   logger.ZapLogger
}

// WithFallback returns a Composer that never fails: errors, timeouts and empty
// replies from primary degrade to the template. A nil primary means template only.
func WithFallback(primary Composer, timeout time.Duration, log logger.ZapLogger) Composer {
	return &fallback{primary: primary, timeout: timeout, logger: log}
}

func (f *fallback) Compose(ctx context.Context, s model.StockState, rec model.ReplenishmentRecommendation, v model.SalesVelocity) (model.ComposedMessage, error) {
	if f.primary == nil {
		return f.template.Compose(ctx, s, rec, v)
	}

	cctx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	msg, err := f.primary.Compose(cctx, s, rec, v)
	if err == nil && msg.ShortMessage == "" {
		err = errors.New("empty reply")
	}
	if err != nil {
		f.logger.Warn("Composer failed, using template",
			zap.String("item_id", s.ItemID),
			zap.String("location_id", s.LocationID),
			zap.Error(fmt.Errorf("%w: %v", model.ErrComposerUnavailable, err)),
		)
		return f.template.Compose(ctx, s, rec, v)
	}
	msg.Source = SourceService
	if msg.Explanation == "" {
		msg.Explanation = rec.Reasoning
	}
	return msg, nil
}
