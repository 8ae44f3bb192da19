package listener

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/fekuna/omnipos-stock-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/monitor"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	EventOrderCreated  = "OrderCreated"
	EventOrderRefunded = "OrderRefunded"
)

type Consumer interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type SaleHandler interface {
	HandleSale(ctx context.Context, input *dto.SaleInput) (*monitor.Outcome, error)
}

type InventoryListener struct {
	consumer   Consumer
	handler    SaleHandler
	maxRetries uint
	logger     logger.ZapLogger
}

func NewInventoryListener(consumer Consumer, handler SaleHandler, logger logger.ZapLogger) *InventoryListener {
	return &InventoryListener{
		consumer:   consumer,
		handler:    handler,
		maxRetries: 3,
		logger:     logger,
	}
}

func (l *InventoryListener) Start(ctx context.Context) {
	l.logger.Info("Starting Inventory Kafka Listener")
	for {
		msg, err := l.consumer.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.logger.Info("Stopping Inventory Kafka Listener")
				return
			}
			l.logger.Error("Failed to read kafka message", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		l.processMessage(ctx, msg.Value)
	}
}

type OrderEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   OrderPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type OrderPayload struct {
	ID         string             `json:"id"`
	MerchantID string             `json:"merchant_id"`
	StoreID    string             `json:"store_id"`
	Items      []OrderItemPayload `json:"items"`
}

type OrderItemPayload struct {
	ProductID string  `json:"product_id"`
	Quantity  float64 `json:"quantity"`
}

func (l *InventoryListener) processMessage(ctx context.Context, value []byte) {
	var event OrderEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	sign := 1.0
	switch event.EventType {
	case EventOrderCreated:
	case EventOrderRefunded:
		// Refunds put stock back, booked as negative sales.
		sign = -1
	default:
		return
	}

	l.logger.Info("Processing order event",
		zap.String("event_type", event.EventType),
		zap.String("order_id", event.Payload.ID),
	)

	for _, item := range event.Payload.Items {
		input := &dto.SaleInput{
			LocationID:  event.Payload.StoreID,
			ItemID:      item.ProductID,
			Quantity:    sign * item.Quantity,
			ReferenceID: event.Payload.ID,
		}
		if err := l.handle(ctx, input); err != nil {
			l.logger.Error("Failed to book order item",
				zap.String("order_id", event.Payload.ID),
				zap.String("product_id", item.ProductID),
				zap.Error(err),
			)
		}
	}
}

// handle retries transient failures. Validation problems are permanent, and a
// failure after the sale was booked is logged instead of retried so the order
// line is never booked twice.
func (l *InventoryListener) handle(ctx context.Context, input *dto.SaleInput) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		_, err := l.handler.HandleSale(ctx, input)
		var evalErr *monitor.EvaluationError
		if errors.As(err, &evalErr) {
			l.logger.Warn("Sale booked but stock evaluation failed",
				zap.String("order_id", input.ReferenceID),
				zap.String("product_id", input.ItemID),
				zap.Error(evalErr.Err),
			)
			return struct{}{}, nil
		}
		var vErr *model.ValidationError
		if errors.As(err, &vErr) || errors.Is(err, model.ErrInvalidQuantity) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(l.maxRetries))
	return err
}
