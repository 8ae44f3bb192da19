package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type SweepSummary struct {
	// Skipped is set when another sweep was already running.
	Skipped    bool                   `json:"skipped"`
	Evaluated  int                    `json:"evaluated"`
	Notified   int                    `json:"notified"`
	Failed     int                    `json:"failed"`
	BySeverity map[model.Severity]int `json:"by_severity"`
	Duration   time.Duration          `json:"duration"`
}

type sweeper struct {
	mu sync.Mutex
}

type sweepJob struct {
	locationID string
	itemID     string
}

// Sweep evaluates every monitored item at every active location and runs the
// results through the orchestrator. A sweep requested while one is running
// returns immediately with Skipped set.
func (s *Service) Sweep(ctx context.Context) (SweepSummary, error) {
	if !s.sweep.mu.TryLock() {
		s.logger.Debug("Sweep already running, skipping")
		return SweepSummary{Skipped: true}, nil
	}
	defer s.sweep.mu.Unlock()

	ctx, span := s.tracer.Start(ctx, "monitor.sweep")
	defer span.End()
	started := time.Now()

	jobs, err := s.sweepJobs(ctx)
	if err != nil {
		span.RecordError(err)
		return SweepSummary{}, err
	}

	summary := SweepSummary{BySeverity: make(map[model.Severity]int)}
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, s.cfg.SweepConcurrency)
	)
	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(j sweepJob) {
			defer wg.Done()
			defer func() { <-sem }()

			out, err := s.EvaluateAndNotify(ctx, j.locationID, j.itemID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Failed++
				s.logger.Error("Sweep evaluation failed",
					zap.String("item_id", j.itemID),
					zap.String("location_id", j.locationID),
					zap.Error(err),
				)
				return
			}
			summary.Evaluated++
			summary.BySeverity[out.State.Severity]++
			if out.Decision.Notified {
				summary.Notified++
			}
		}(job)
	}
	wg.Wait()

	summary.Duration = time.Since(started)
	span.SetAttributes(
		attribute.Int("sweep.evaluated", summary.Evaluated),
		attribute.Int("sweep.notified", summary.Notified),
		attribute.Int("sweep.failed", summary.Failed),
	)
	s.logger.Info("Sweep finished",
		zap.Int("evaluated", summary.Evaluated),
		zap.Int("notified", summary.Notified),
		zap.Int("failed", summary.Failed),
		zap.Int("critical", summary.BySeverity[model.SeverityCritical]),
		zap.Int("warning", summary.BySeverity[model.SeverityWarning]),
		zap.Duration("duration", summary.Duration),
	)
	return summary, ctx.Err()
}

// sweepJobs lists the ledger pairs worth evaluating: active locations and
// monitored items only.
func (s *Service) sweepJobs(ctx context.Context) ([]sweepJob, error) {
	recs, err := s.inventory.ListRecords(ctx, nil)
	if err != nil {
		return nil, err
	}
	locs, err := s.catalog.ListLocations(ctx, false)
	if err != nil {
		return nil, err
	}
	inactive := make(map[string]bool, len(locs))
	for _, l := range locs {
		inactive[l.ID] = !l.Active
	}

	monitored := make(map[string]bool)
	var jobs []sweepJob
	for _, rec := range recs {
		if inactive[rec.LocationID] {
			continue
		}
		ok, seen := monitored[rec.ItemID]
		if !seen {
			if ok, err = s.catalog.IsMonitored(ctx, rec.ItemID); err != nil {
				return nil, err
			}
			monitored[rec.ItemID] = ok
		}
		if ok {
			jobs = append(jobs, sweepJob{locationID: rec.LocationID, itemID: rec.ItemID})
		}
	}
	return jobs, nil
}
