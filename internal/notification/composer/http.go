package composer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type composeRequest struct {
	State          model.StockState                  `json:"state"`
	Recommendation model.ReplenishmentRecommendation `json:"recommendation"`
	Velocity       model.SalesVelocity               `json:"velocity"`
}

// HTTPComposer calls a text-generation service. Repeated failures open the
// breaker so a dead service costs nothing until it recovers.
type HTTPComposer struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewHTTPComposer(url string, client *http.Client, log logger.ZapLogger) *HTTPComposer {
	if client == nil {
		client = &http.Client{}
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "message-composer",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &HTTPComposer{url: url, client: client, breaker: cb}
}

func (c *HTTPComposer) Compose(ctx context.Context, s model.StockState, rec model.ReplenishmentRecommendation, v model.SalesVelocity) (model.ComposedMessage, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.call(ctx, composeRequest{State: s, Recommendation: rec, Velocity: v})
	})
	if err != nil {
		return model.ComposedMessage{}, err
	}
	return out.(model.ComposedMessage), nil
}

func (c *HTTPComposer) call(ctx context.Context, body composeRequest) (model.ComposedMessage, error) {
	var msg model.ComposedMessage
	payload, err := json.Marshal(body)
	if err != nil {
		return msg, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return msg, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return msg, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return msg, fmt.Errorf("composer returned %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return msg, fmt.Errorf("decode composer reply: %w", err)
	}
	return msg, nil
}
