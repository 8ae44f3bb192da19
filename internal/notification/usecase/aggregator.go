package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/pkg/clock"
	"github.com/google/uuid"
)

type deliverFunc func(ctx context.Context, n model.Notification)

// aggregator debounces alerts per location. Each non-critical arrival restarts
// the window; a critical arrival flushes the buffer, itself included, before
// returning.
type aggregator struct {
	clock   clock.Clock
	window  time.Duration
	deliver deliverFunc

	mu      sync.Mutex
	buffers map[string]*buffer
	gen     uint64
}

type buffer struct {
	alerts []model.Alert
	timer  clock.Timer
	gen    uint64
}

func newAggregator(clk clock.Clock, window time.Duration, deliver deliverFunc) *aggregator {
	return &aggregator{clock: clk, window: window, deliver: deliver, buffers: make(map[string]*buffer)}
}

func (a *aggregator) Submit(ctx context.Context, alert model.Alert) {
	if a.window <= 0 {
		a.deliver(ctx, merge([]model.Alert{alert}, a.clock.Now()))
		return
	}

	a.mu.Lock()
	b := a.buffers[alert.LocationID]
	if b == nil {
		b = &buffer{}
		a.buffers[alert.LocationID] = b
	}
	b.alerts = append(b.alerts, alert)
	if b.timer != nil {
		b.timer.Stop()
	}

	if alert.Severity == model.SeverityCritical {
		delete(a.buffers, alert.LocationID)
		pending := b.alerts
		a.mu.Unlock()
		a.deliver(ctx, merge(pending, a.clock.Now()))
		return
	}

	// Generations are aggregator-wide so a callback from a flushed buffer can
	// never match a fresh buffer for the same location.
	a.gen++
	b.gen = a.gen
	gen, loc := b.gen, alert.LocationID
	b.timer = a.clock.AfterFunc(a.window, func() { a.expire(loc, gen) })
	a.mu.Unlock()
}

func (a *aggregator) expire(loc string, gen uint64) {
	a.mu.Lock()
	b := a.buffers[loc]
	if b == nil || b.gen != gen {
		a.mu.Unlock()
		return
	}
	delete(a.buffers, loc)
	a.mu.Unlock()
	a.deliver(context.Background(), merge(b.alerts, a.clock.Now()))
}

// FlushAll delivers every buffer now, in location order.
func (a *aggregator) FlushAll(ctx context.Context) {
	a.mu.Lock()
	locs := make([]string, 0, len(a.buffers))
	for loc, b := range a.buffers {
		if b.timer != nil {
			b.timer.Stop()
		}
		locs = append(locs, loc)
	}
	sort.Strings(locs)
	pending := make([][]model.Alert, 0, len(locs))
	for _, loc := range locs {
		pending = append(pending, a.buffers[loc].alerts)
		delete(a.buffers, loc)
	}
	a.mu.Unlock()

	for _, alerts := range pending {
		a.deliver(ctx, merge(alerts, a.clock.Now()))
	}
}

// merge turns buffered alerts into one notification. A single alert passes
// through unchanged; several become one aggregated notice carrying the worst
// severity.
func merge(alerts []model.Alert, now time.Time) model.Notification {
	if len(alerts) == 1 {
		a := alerts[0]
		return model.Notification{
			ID:         a.ID,
			Kind:       model.KindAlert,
			LocationID: a.LocationID,
			ItemIDs:    []string{a.ItemID},
			Severity:   a.Severity,
			Title:      a.Message.ShortMessage,
			Body:       a.Message.FullMessage,
			CreatedAt:  a.CreatedAt,
		}
	}

	ordered := append([]model.Alert(nil), alerts...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Severity.WorseThan(ordered[j].Severity)
	})

	worst := ordered[0].Severity
	items := make([]string, 0, len(ordered))
	lines := make([]string, 0, len(ordered))
	for _, a := range ordered {
		items = append(items, a.ItemID)
		lines = append(lines, a.Message.ShortMessage)
	}
	return model.Notification{
		ID:         uuid.New().String(),
		Kind:       model.KindAggregated,
		LocationID: ordered[0].LocationID,
		ItemIDs:    items,
		Severity:   worst,
		Title:      fmt.Sprintf("%d stock alerts at %s", len(ordered), ordered[0].LocationID),
		Body:       strings.Join(lines, "\n"),
		CreatedAt:  now,
	}
}
