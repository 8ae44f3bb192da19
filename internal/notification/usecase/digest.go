package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/notification/channel"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var digestOrder = []model.Severity{model.SeverityCritical, model.SeverityWarning, model.SeverityInfo}

// SendDigest summarizes every active alert, acknowledged or not. The persisted
// last-digest time is the only interval gate so restarts and replicas agree.
func (o *orchestrator) SendDigest(ctx context.Context) (bool, error) {
	if o.cfg.DigestInterval <= 0 {
		return false, nil
	}
	if !o.digesting.TryLock() {
		return false, nil
	}
	defer o.digesting.Unlock()

	now := o.clock.Now()
	last, err := o.repo.LastDigestAt(ctx)
	if err != nil {
		return false, err
	}
	if !last.IsZero() && now.Sub(last) < o.cfg.DigestInterval {
		o.logger.Debug("Digest skipped, interval not elapsed")
		return false, nil
	}

	active, err := o.listActive(ctx, true)
	if err != nil {
		return false, err
	}
	if len(active) == 0 {
		o.logger.Debug("Digest skipped, no active alerts")
		return false, nil
	}

	groups := make(map[model.Severity][]model.NotificationState)
	items := make([]string, 0, len(active))
	for _, st := range active {
		groups[st.LastSeverity] = append(groups[st.LastSeverity], st)
		items = append(items, st.ItemID)
	}

	var body strings.Builder
	for _, sev := range digestOrder {
		g := groups[sev]
		if len(g) == 0 {
			continue
		}
		fmt.Fprintf(&body, "%s (%d):\n", strings.ToUpper(string(sev)), len(g))
		for _, st := range g {
			fmt.Fprintf(&body, "- %s at %s, notified %d time(s)", st.ItemID, st.LocationID, st.NotificationCount)
			if st.Acknowledged {
				fmt.Fprintf(&body, ", acknowledged by %s", st.AcknowledgedBy)
			}
			body.WriteString("\n")
		}
	}

	worst := active[0].LastSeverity
	o.dispatcher.Dispatch(ctx, model.Notification{
		ID:        uuid.New().String(),
		Kind:      model.KindDigest,
		ItemIDs:   items,
		Severity:  worst,
		Title:     fmt.Sprintf("Stock digest: %d active alert(s)", len(active)),
		Body:      strings.TrimRight(body.String(), "\n"),
		CreatedAt: now,
	}, channel.BySeverity(worst))

	if err := o.repo.SetLastDigestAt(ctx, now); err != nil {
		return true, err
	}
	o.stats.Digest()
	o.logger.Info("Stock digest sent", zap.Int("alerts", len(active)))
	return true, nil
}
