package channel

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/notification"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"go.uber.org/zap"
)

// Filter selects recipients for one delivery.
type Filter func(model.Recipient) bool

// BySeverity admits recipients whose minimum severity is met.
func BySeverity(s model.Severity) Filter {
	return func(r model.Recipient) bool {
		return !r.MinSeverity.WorseThan(s)
	}
}

// ByRole admits recipients holding role.
func ByRole(role model.Role) Filter {
	return func(r model.Recipient) bool { return r.Role == role }
}

type Config struct {
	MaxRetries     uint
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Dispatcher posts every notification to the in-app inbox synchronously and fans
// it out to external channels in the background with bounded retry.
type Dispatcher struct {
	inApp      Sender
	senders    map[model.Channel]Sender
	recipients []model.Recipient
	cfg        Config
	stats      *notification.Stats
	logger     logger.ZapLogger
	wg         sync.WaitGroup
}

func NewDispatcher(inApp Sender, senders []Sender, recipients []model.Recipient, cfg Config, stats *notification.Stats, log logger.ZapLogger) *Dispatcher {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 10 * time.Second
	}
	bySender := make(map[model.Channel]Sender, len(senders))
	for _, s := range senders {
		bySender[s.Channel()] = s
	}
	return &Dispatcher{
		inApp:      inApp,
		senders:    bySender,
		recipients: recipients,
		cfg:        cfg,
		stats:      stats,
		logger:     log,
	}
}

// Eligible returns the recipients passing every filter. Front-line roles are never
// eligible.
func (d *Dispatcher) Eligible(filters ...Filter) []model.Recipient {
	var out []model.Recipient
outer:
	for _, r := range d.recipients {
		if r.Role.IsFrontLine() {
			continue
		}
		for _, f := range filters {
			if !f(r) {
				continue outer
			}
		}
		out = append(out, r)
	}
	return out
}

// Channels lists the channels a delivery with these filters would use, in-app
// first.
func (d *Dispatcher) Channels(filters ...Filter) []model.Channel {
	seen := map[model.Channel]bool{model.ChannelInApp: true}
	var ext []model.Channel
	for _, r := range d.Eligible(filters...) {
		for _, ch := range r.Channels {
			if _, ok := d.senders[ch]; ok && !seen[ch] {
				seen[ch] = true
				ext = append(ext, ch)
			}
		}
	}
	sort.Slice(ext, func(i, j int) bool { return ext[i] < ext[j] })
	return append([]model.Channel{model.ChannelInApp}, ext...)
}

// Dispatch delivers n. The in-app post happens before Dispatch returns; external
// sends do not block and their failures are only logged and counted.
func (d *Dispatcher) Dispatch(ctx context.Context, n model.Notification, filters ...Filter) {
	if err := d.inApp.Send(ctx, model.Recipient{ID: "inbox"}, n); err != nil {
		d.logger.Error("Failed to post in-app notification", zap.String("notification_id", n.ID), zap.Error(err))
		d.stats.Failed()
	} else {
		d.stats.Delivered()
	}

	bg := context.WithoutCancel(ctx)
	for _, r := range d.Eligible(filters...) {
		for _, ch := range r.Channels {
			sender, ok := d.senders[ch]
			if !ok || ch == model.ChannelInApp {
				continue
			}
			d.wg.Add(1)
			go func(s Sender, to model.Recipient) {
				defer d.wg.Done()
				d.send(bg, s, to, n)
			}(sender, r)
		}
	}
}

func (d *Dispatcher) send(ctx context.Context, s Sender, to model.Recipient, n model.Notification) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.cfg.InitialBackoff
	b.MaxInterval = d.cfg.MaxBackoff

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, s.Send(ctx, to, n)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(d.cfg.MaxRetries))
	if err != nil {
		d.stats.Failed()
		d.logger.Error("Notification delivery failed",
			zap.String("notification_id", n.ID),
			zap.Error(&model.ChannelDeliveryError{Channel: s.Channel(), Recipient: to.ID, Err: err}),
		)
		return
	}
	d.stats.Delivered()
}

// Wait blocks until every background send has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
