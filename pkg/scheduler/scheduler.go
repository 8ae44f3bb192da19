package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fekuna/omnipos-stock-service/pkg/clock"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"go.uber.org/zap"
)

// Task is a periodic job. Run must be safe to call again before the previous
// call's effects are visible; the scheduler never overlaps runs of one task.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

type Scheduler struct {
	clock  clock.Clock
	logger logger.ZapLogger

	mu      sync.Mutex
	entries []*entry
	stopped bool
}

type entry struct {
	task    Task
	running atomic.Bool
	timer   clock.Timer
}

func New(c clock.Clock, log logger.ZapLogger) *Scheduler {
	return &Scheduler{clock: c, logger: log}
}

// Start arms every task with a positive interval. Tasks keep re-arming until ctx is
// cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context, tasks ...Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tasks {
		if t.Interval <= 0 || t.Run == nil {
			s.logger.Info("Scheduler task disabled", zap.String("task", t.Name))
			continue
		}
		e := &entry{task: t}
		s.entries = append(s.entries, e)
		s.armLocked(ctx, e)
		s.logger.Info("Scheduler task armed", zap.String("task", t.Name), zap.Duration("interval", t.Interval))
	}
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for _, e := range s.entries {
		if e.timer != nil {
			e.timer.Stop()
		}
	}
}

func (s *Scheduler) armLocked(ctx context.Context, e *entry) {
	if s.stopped {
		return
	}
	e.timer = s.clock.AfterFunc(e.task.Interval, func() {
		if ctx.Err() != nil {
			return
		}
		s.fire(ctx, e)
		s.mu.Lock()
		s.armLocked(ctx, e)
		s.mu.Unlock()
	})
}

func (s *Scheduler) fire(ctx context.Context, e *entry) {
	if !e.running.CompareAndSwap(false, true) {
		s.logger.Debug("Scheduler task still running, skipping tick", zap.String("task", e.task.Name))
		return
	}
	defer e.running.Store(false)

	if err := e.task.Run(ctx); err != nil {
		s.logger.Error("Scheduler task failed", zap.String("task", e.task.Name), zap.Error(err))
	}
}
