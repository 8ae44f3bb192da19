package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/notification/channel"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// overdue reports whether st needs escalating at now. Elapsed time is checked
// against both the last notification and the last escalation, so a sweep that
// runs twice escalates once.
func (o *orchestrator) overdue(st *model.NotificationState, now time.Time) bool {
	if !st.Active || st.Acknowledged || st.LastSeverity != model.SeverityCritical {
		return false
	}
	if now.Sub(st.LastNotifiedAt) <= o.cfg.EscalationAfter {
		return false
	}
	return st.EscalatedAt == nil || now.Sub(*st.EscalatedAt) > o.cfg.EscalationAfter
}

func (o *orchestrator) EscalationSweep(ctx context.Context) (int, error) {
	if o.cfg.EscalationAfter <= 0 {
		return 0, nil
	}
	if !o.escalating.TryLock() {
		o.logger.Debug("Escalation sweep already running")
		return 0, nil
	}
	defer o.escalating.Unlock()

	states, err := o.repo.List(ctx)
	if err != nil {
		return 0, err
	}

	escalated := 0
	for i := range states {
		if !o.overdue(&states[i], o.clock.Now()) {
			continue
		}
		st, err := o.escalate(ctx, states[i].ID)
		if err != nil {
			return escalated, err
		}
		if st == nil {
			continue
		}
		escalated++

		o.dispatcher.Dispatch(ctx, model.Notification{
			ID:         uuid.New().String(),
			Kind:       model.KindEscalation,
			LocationID: st.LocationID,
			ItemIDs:    []string{st.ItemID},
			Severity:   model.SeverityCritical,
			Title:      fmt.Sprintf("Unacknowledged critical stock alert: %s at %s", st.ItemID, st.LocationID),
			Body: fmt.Sprintf("Critical since %s, notified %d time(s), escalation #%d.",
				st.LastNotifiedAt.Format(time.RFC3339), st.NotificationCount, st.EscalationCount),
			CreatedAt: o.clock.Now(),
		}, channel.ByRole(o.cfg.EscalationRole))

		o.logger.Info("Stock alert escalated",
			zap.String("state_id", st.ID),
			zap.String("role", string(o.cfg.EscalationRole)),
			zap.Int("escalation_count", st.EscalationCount),
		)
	}
	o.stats.Escalated(escalated)
	return escalated, nil
}

// escalate re-checks the state under its lock and records the escalation. It
// returns nil when the state stopped being overdue in the meantime. Cooldown is
// left alone.
func (o *orchestrator) escalate(ctx context.Context, id string) (*model.NotificationState, error) {
	unlock, err := o.locks.Lock(ctx, lockKey(id))
	if err != nil {
		return nil, err
	}
	defer unlock()

	st, err := o.repo.Get(ctx, id)
	if err != nil || st == nil {
		return nil, err
	}
	now := o.clock.Now()
	if !o.overdue(st, now) {
		return nil, nil
	}
	st.EscalatedAt = &now
	st.EscalationCount++
	if err := o.repo.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}
