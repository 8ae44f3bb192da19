package usecase

import (
	"context"
	"sort"
	"sync"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/notification"
	"github.com/fekuna/omnipos-stock-service/internal/notification/channel"
	"github.com/fekuna/omnipos-stock-service/internal/notification/composer"
	"github.com/fekuna/omnipos-stock-service/pkg/clock"
	"github.com/fekuna/omnipos-stock-service/pkg/keylock"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, n model.Notification, filters ...channel.Filter)
	Channels(filters ...channel.Filter) []model.Channel
}

type orchestrator struct {
	cfg        notification.Config
	repo       notification.StateRepository
	locks      keylock.Locker
	clock      clock.Clock
	composer   composer.Composer
	dispatcher Dispatcher
	aggregator *aggregator
	stats      *notification.Stats
	tracer     trace.Tracer
	logger     logger.ZapLogger

	escalating sync.Mutex
	digesting  sync.Mutex
}

func NewOrchestrator(
	cfg notification.Config,
	repo notification.StateRepository,
	locks keylock.Locker,
	clk clock.Clock,
	comp composer.Composer,
	dispatcher Dispatcher,
	stats *notification.Stats,
	log logger.ZapLogger,
) notification.Orchestrator {
	o := &orchestrator{
		cfg:        cfg,
		repo:       repo,
		locks:      locks,
		clock:      clk,
		composer:   comp,
		dispatcher: dispatcher,
		stats:      stats,
		tracer:     otel.Tracer("omnipos-stock-service/notification"),
		logger:     log,
	}
	o.aggregator = newAggregator(clk, cfg.AggregationWindow, func(ctx context.Context, n model.Notification) {
		o.dispatcher.Dispatch(ctx, n, channel.BySeverity(n.Severity))
	})
	return o
}

func lockKey(id string) string {
	return "notify:" + id
}

func (o *orchestrator) Orchestrate(ctx context.Context, state *model.StockState, rec *model.ReplenishmentRecommendation) (notification.Decision, error) {
	ctx, span := o.tracer.Start(ctx, "notification.orchestrate", trace.WithAttributes(
		attribute.String("item.id", state.ItemID),
		attribute.String("location.id", state.LocationID),
		attribute.String("severity", string(state.Severity)),
	))
	defer span.End()

	reason, err := o.decide(ctx, state)
	if err != nil {
		return notification.Decision{}, err
	}
	o.stats.Decision(reason)
	span.SetAttributes(attribute.String("decision", string(reason)))
	if reason != notification.ReasonNotified {
		o.logger.Debug("Alert suppressed",
			zap.String("item_id", state.ItemID),
			zap.String("location_id", state.LocationID),
			zap.String("reason", string(reason)),
		)
		return notification.Decision{Reason: reason}, nil
	}

	var recommendation model.ReplenishmentRecommendation
	if rec != nil {
		recommendation = *rec
	}
	msg, err := o.composer.Compose(ctx, *state, recommendation, state.Velocity)
	if err != nil || msg.ShortMessage == "" {
		o.logger.Warn("Composer produced no message, using template",
			zap.String("item_id", state.ItemID),
			zap.String("location_id", state.LocationID),
			zap.Error(err),
		)
		msg, _ = composer.Template{}.Compose(ctx, *state, recommendation, state.Velocity)
	}

	alert := model.Alert{
		ID:         uuid.New().String(),
		ItemID:     state.ItemID,
		LocationID: state.LocationID,
		Severity:   state.Severity,
		Message:    msg,
		CreatedAt:  o.clock.Now(),
	}
	o.aggregator.Submit(ctx, alert)

	o.logger.Info("Stock alert raised",
		zap.String("item_id", state.ItemID),
		zap.String("location_id", state.LocationID),
		zap.String("severity", string(state.Severity)),
		zap.String("message_source", msg.Source),
	)
	return notification.Decision{
		Notified: true,
		Reason:   notification.ReasonNotified,
		Channels: o.dispatcher.Channels(channel.BySeverity(state.Severity)),
	}, nil
}

// decide runs the gates and, when they pass, records the notification. The read
// and the write happen under the key's lock so concurrent evaluations of the same
// key notify at most once.
func (o *orchestrator) decide(ctx context.Context, state *model.StockState) (notification.Reason, error) {
	if !o.cfg.Enabled {
		return notification.ReasonDisabled, nil
	}

	id := model.NotificationStateID(state.ItemID, state.LocationID)
	unlock, err := o.locks.Lock(ctx, lockKey(id))
	if err != nil {
		return "", err
	}
	defer unlock()

	st, err := o.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	now := o.clock.Now()

	if state.Severity == model.SeverityOK {
		if st != nil && st.Active {
			st.Active = false
			st.ResolvedAt = &now
			if err := o.repo.Save(ctx, st); err != nil {
				return "", err
			}
			o.logger.Info("Stock alert resolved", zap.String("state_id", id))
		}
		return notification.ReasonHealthy, nil
	}

	if st != nil && now.Before(st.CooldownUntil) && !state.Severity.WorseThan(st.LastSeverity) {
		return notification.ReasonCooldown, nil
	}

	quiet := o.cfg.QuietHours.Contains(now)
	if quiet && !(state.Severity == model.SeverityCritical && o.cfg.IgnoreQuietForCritical) {
		return notification.ReasonQuietHours, nil
	}

	if st == nil {
		st = &model.NotificationState{ID: id, ItemID: state.ItemID, LocationID: state.LocationID}
	}
	st.LastNotifiedAt = now
	st.LastSeverity = state.Severity
	st.CooldownUntil = now.Add(o.cfg.Cooldown(state.Severity))
	st.NotificationCount++
	st.Active = true
	st.ResolvedAt = nil
	st.Acknowledged = false
	st.AcknowledgedAt = nil
	st.AcknowledgedBy = ""
	st.EscalatedAt = nil
	if err := o.repo.Save(ctx, st); err != nil {
		return "", err
	}
	return notification.ReasonNotified, nil
}

func (o *orchestrator) Acknowledge(ctx context.Context, id, by string) (*model.NotificationState, error) {
	unlock, err := o.locks.Lock(ctx, lockKey(id))
	if err != nil {
		return nil, err
	}
	defer unlock()

	st, err := o.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, model.ErrNotFound
	}
	if st.Acknowledged {
		return st, nil
	}
	now := o.clock.Now()
	st.Acknowledged = true
	st.AcknowledgedAt = &now
	st.AcknowledgedBy = by
	if err := o.repo.Save(ctx, st); err != nil {
		return nil, err
	}
	o.logger.Info("Stock alert acknowledged", zap.String("state_id", id), zap.String("by", by))
	return st, nil
}

func (o *orchestrator) AcknowledgeItem(ctx context.Context, itemID, by string) (int, error) {
	states, err := o.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, st := range states {
		if st.ItemID != itemID || st.Acknowledged {
			continue
		}
		if _, err := o.Acknowledge(ctx, st.ID, by); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// ListUnacknowledged returns active, unacknowledged states, worst first.
func (o *orchestrator) ListUnacknowledged(ctx context.Context) ([]model.NotificationState, error) {
	return o.listActive(ctx, false)
}

// listActive returns active states worst first.
func (o *orchestrator) listActive(ctx context.Context, withAcknowledged bool) ([]model.NotificationState, error) {
	states, err := o.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.NotificationState, 0, len(states))
	for _, st := range states {
		if st.Active && (withAcknowledged || !st.Acknowledged) {
			out = append(out, st)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastSeverity.WorseThan(out[j].LastSeverity)
	})
	return out, nil
}

func (o *orchestrator) Flush(ctx context.Context) {
	o.aggregator.FlushAll(ctx)
}

func (o *orchestrator) Stats() notification.StatsSnapshot {
	return o.stats.Snapshot()
}
