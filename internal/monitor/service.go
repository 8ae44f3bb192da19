// Package monitor ties the ledger, velocity tracking, evaluation, replenishment
// and notification together. Every sale, restock and transfer flows through
// here, as does the periodic sweep.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/catalog"
	"github.com/fekuna/omnipos-stock-service/internal/inventory"
	"github.com/fekuna/omnipos-stock-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/notification"
	"github.com/fekuna/omnipos-stock-service/internal/replenishment"
	"github.com/fekuna/omnipos-stock-service/internal/stockstate"
	"github.com/fekuna/omnipos-stock-service/internal/velocity"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/fekuna/omnipos-stock-service/pkg/scheduler"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Config struct {
	// DefaultLocationID is used for events that carry no location.
	DefaultLocationID  string
	SweepInterval      time.Duration
	EscalationInterval time.Duration
	DigestInterval     time.Duration
	SweepConcurrency   int
}

// Outcome is the result of evaluating one (item, location). Recommendation is
// nil when the stock is healthy; Decision is zero for unmonitored items.
type Outcome struct {
	State          *model.StockState                  `json:"state"`
	Recommendation *model.ReplenishmentRecommendation `json:"recommendation,omitempty"`
	Decision       notification.Decision              `json:"decision"`
	Monitored      bool                               `json:"monitored"`
}

type TransferOutcome struct {
	Transfer *dto.TransferResult `json:"transfer"`
	Source   *Outcome            `json:"source"`
	Target   *Outcome            `json:"target"`
}

// EvaluationError reports a failure after the stock change was committed. The
// ledger already reflects the change, so retrying the whole call would book it
// twice.
type EvaluationError struct {
	LocationID string
	ItemID     string
	Err        error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluate %s at %s: %v", e.ItemID, e.LocationID, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

type Service struct {
	cfg        Config
	inventory  inventory.UseCase
	velocity   velocity.UseCase
	evaluator  *stockstate.Evaluator
	calculator *replenishment.Calculator
	notifier   notification.Orchestrator
	catalog    catalog.UseCase
	sweep      sweeper
	tracer     trace.Tracer
	logger     logger.ZapLogger
}

func NewService(
	cfg Config,
	inv inventory.UseCase,
	vel velocity.UseCase,
	evaluator *stockstate.Evaluator,
	calculator *replenishment.Calculator,
	notifier notification.Orchestrator,
	cat catalog.UseCase,
	log logger.ZapLogger,
) *Service {
	if cfg.DefaultLocationID == "" {
		cfg.DefaultLocationID = "main"
	}
	if cfg.SweepConcurrency <= 0 {
		cfg.SweepConcurrency = 4
	}
	return &Service{
		cfg:        cfg,
		inventory:  inv,
		velocity:   vel,
		evaluator:  evaluator,
		calculator: calculator,
		notifier:   notifier,
		catalog:    cat,
		tracer:     otel.Tracer("omnipos-stock-service/monitor"),
		logger:     log,
	}
}

func (s *Service) location(id string) string {
	if id == "" {
		return s.cfg.DefaultLocationID
	}
	return id
}

// HandleSale books the sale in the ledger, feeds the velocity tracker and
// re-evaluates the pair.
func (s *Service) HandleSale(ctx context.Context, input *dto.SaleInput) (*Outcome, error) {
	in := *input
	in.LocationID = s.location(in.LocationID)

	ctx, span := s.tracer.Start(ctx, "monitor.handle_sale", trace.WithAttributes(
		attribute.String("item.id", in.ItemID),
		attribute.String("location.id", in.LocationID),
	))
	defer span.End()

	if _, err := s.inventory.RecordSale(ctx, &in); err != nil {
		return nil, err
	}
	if err := s.velocity.RecordSale(ctx, in.ItemID, in.Quantity, in.LocationID); err != nil {
		// A lost velocity sample only flattens the rate.
		s.logger.Warn("Failed to record sales event",
			zap.String("item_id", in.ItemID),
			zap.String("location_id", in.LocationID),
			zap.Error(err),
		)
	}
	return s.afterCommit(ctx, in.LocationID, in.ItemID)
}

func (s *Service) HandleRestock(ctx context.Context, input *dto.RestockInput) (*Outcome, error) {
	in := *input
	in.LocationID = s.location(in.LocationID)
	if _, err := s.inventory.Restock(ctx, &in); err != nil {
		return nil, err
	}
	return s.afterCommit(ctx, in.LocationID, in.ItemID)
}

func (s *Service) HandleAdjustment(ctx context.Context, input *dto.AdjustInventoryInput) (*Outcome, error) {
	in := *input
	in.LocationID = s.location(in.LocationID)
	if _, err := s.inventory.AdjustInventory(ctx, &in); err != nil {
		return nil, err
	}
	return s.afterCommit(ctx, in.LocationID, in.ItemID)
}

// Transfer moves stock and re-evaluates both ends.
func (s *Service) Transfer(ctx context.Context, input *dto.TransferInventoryInput) (*TransferOutcome, error) {
	res, err := s.inventory.TransferInventory(ctx, input)
	if err != nil {
		return nil, err
	}
	src, err := s.afterCommit(ctx, input.SourceLocationID, input.ItemID)
	if err != nil {
		return nil, err
	}
	dst, err := s.afterCommit(ctx, input.TargetLocationID, input.ItemID)
	if err != nil {
		return nil, err
	}
	return &TransferOutcome{Transfer: res, Source: src, Target: dst}, nil
}

// EvaluateAndNotify recomputes the state of the pair and, for monitored items,
// hands it to the orchestrator. Healthy states are passed too so that active
// alerts resolve.
func (s *Service) EvaluateAndNotify(ctx context.Context, locationID, itemID string) (*Outcome, error) {
	locationID = s.location(locationID)
	state, err := s.evaluator.Evaluate(ctx, locationID, itemID, nil)
	if err != nil {
		return nil, err
	}
	return s.notify(ctx, state)
}

func (s *Service) afterCommit(ctx context.Context, locationID, itemID string) (*Outcome, error) {
	out, err := s.EvaluateAndNotify(ctx, locationID, itemID)
	if err != nil {
		return nil, &EvaluationError{LocationID: s.location(locationID), ItemID: itemID, Err: err}
	}
	return out, nil
}

func (s *Service) notify(ctx context.Context, state *model.StockState) (*Outcome, error) {
	out := &Outcome{State: state}
	if state.Severity != model.SeverityOK {
		rec := s.calculator.Recommend(*state, state.Velocity)
		out.Recommendation = &rec
	}

	monitored, err := s.catalog.IsMonitored(ctx, state.ItemID)
	if err != nil {
		return nil, err
	}
	out.Monitored = monitored
	if !monitored {
		return out, nil
	}

	decision, err := s.notifier.Orchestrate(ctx, state, out.Recommendation)
	if err != nil {
		return nil, err
	}
	out.Decision = decision
	return out, nil
}

func (s *Service) GetState(ctx context.Context, locationID, itemID string) (*model.StockState, error) {
	return s.evaluator.Evaluate(ctx, s.location(locationID), itemID, nil)
}

func (s *Service) GetStatesForItem(ctx context.Context, itemID string) ([]model.StockState, error) {
	return s.evaluator.EvaluateAll(ctx, itemID)
}

// Recommend returns the replenishment advice for the pair, whatever its severity.
func (s *Service) Recommend(ctx context.Context, locationID, itemID string) (*model.ReplenishmentRecommendation, error) {
	state, err := s.GetState(ctx, locationID, itemID)
	if err != nil {
		return nil, err
	}
	rec := s.calculator.Recommend(*state, state.Velocity)
	return &rec, nil
}

// Tasks returns the periodic jobs: the evaluation sweep, the escalation sweep
// and the digest. Intervals of zero leave a job out.
func (s *Service) Tasks() []scheduler.Task {
	var tasks []scheduler.Task
	if s.cfg.SweepInterval > 0 {
		tasks = append(tasks, scheduler.Task{
			Name:     "stock-sweep",
			Interval: s.cfg.SweepInterval,
			Run: func(ctx context.Context) error {
				_, err := s.Sweep(ctx)
				return err
			},
		})
	}
	if s.cfg.EscalationInterval > 0 {
		tasks = append(tasks, scheduler.Task{
			Name:     "escalation-sweep",
			Interval: s.cfg.EscalationInterval,
			Run: func(ctx context.Context) error {
				_, err := s.notifier.EscalationSweep(ctx)
				return err
			},
		})
	}
	if s.cfg.DigestInterval > 0 {
		tasks = append(tasks, scheduler.Task{
			Name:     "digest",
			Interval: s.cfg.DigestInterval,
			Run: func(ctx context.Context) error {
				_, err := s.notifier.SendDigest(ctx)
				return err
			},
		})
	}
	return tasks
}
