// Package channel delivers notifications to recipients over in-app, push, email,
// SMS and webhook channels.
package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cenkalti/backoff/v5"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/notification"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Sender interface {
	Channel() model.Channel
	Send(ctx context.Context, to model.Recipient, n model.Notification) error
}

// InApp writes to the shared inbox. It is the one channel that is always used.
type InApp struct {
	inbox notification.InboxRepository
	limit int
}

func NewInApp(inbox notification.InboxRepository, limit int) *InApp {
	return &InApp{inbox: inbox, limit: limit}
}

func (c *InApp) Channel() model.Channel { return model.ChannelInApp }

func (c *InApp) Send(ctx context.Context, _ model.Recipient, n model.Notification) error {
	return c.inbox.Append(ctx, n, c.limit)
}

// Webhook posts notifications as JSON. A recipient Address overrides the default
// URL.
type Webhook struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
}

func NewWebhook(url string, client *http.Client, perSecond float64) *Webhook {
	if client == nil {
		client = &http.Client{}
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &Webhook{url: url, client: client, limiter: rate.NewLimiter(limit, 1)}
}

func (c *Webhook) Channel() model.Channel { return model.ChannelWebhook }

type webhookPayload struct {
	Recipient    string             `json:"recipient"`
	Notification model.Notification `json:"notification"`
}

func (c *Webhook) Send(ctx context.Context, to model.Recipient, n model.Notification) error {
	url := c.url
	if to.Address != "" {
		url = to.Address
	}
	if url == "" {
		return backoff.Permanent(fmt.Errorf("no webhook url for %s", to.ID))
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(webhookPayload{Recipient: to.ID, Notification: n})
	if err != nil {
		return backoff.Permanent(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode/100 == 2:
		return nil
	case resp.StatusCode/100 == 4 && resp.StatusCode != http.StatusTooManyRequests:
		return backoff.Permanent(fmt.Errorf("webhook rejected: %s", resp.Status))
	default:
		return fmt.Errorf("webhook failed: %s", resp.Status)
	}
}

// LogSender stands in for a provider integration (push, email, SMS) by logging
// the message that would have been sent.
type LogSender struct {
	channel model.Channel
	logger  logger.ZapLogger
}

func NewLogSender(ch model.Channel, log logger.ZapLogger) *LogSender {
	return &LogSender{channel: ch, logger: log}
}

func (c *LogSender) Channel() model.Channel { return c.channel }

func (c *LogSender) Send(_ context.Context, to model.Recipient, n model.Notification) error {
	c.logger.Info("Notification sent",
		zap.String("channel", string(c.channel)),
		zap.String("recipient", to.ID),
		zap.String("address", to.Address),
		zap.String("title", n.Title),
	)
	return nil
}
