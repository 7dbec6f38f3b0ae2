package billing

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/unip1801/antaeus/pkg/models"
	"github.com/unip1801/antaeus/pkg/observability"
)

// PassRunner runs one billing pass. Implemented by *Engine.
type PassRunner interface {
	HandlePayments(ctx context.Context) ([]models.Invoice, error)
}

// Scheduler fires a billing pass once per month, on the configured trigger
// day, from a dedicated goroutine. It is a plain two-state toggle: Start
// launches the loop, Stop cancels its suspension and joins it.
type Scheduler struct {
	engine     PassRunner
	clock      Clock
	logger     *observability.Logger
	metrics    *observability.Metrics
	triggerDay int

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a scheduler that triggers on triggerDay of each
// month. metrics may be nil.
func NewScheduler(engine PassRunner, clock Clock, triggerDay int, logger *observability.Logger, metrics *observability.Metrics) *Scheduler {
	return &Scheduler{
		engine:     engine,
		clock:      clock,
		logger:     logger.WithField("component", "scheduler"),
		metrics:    metrics,
		triggerDay: triggerDay,
	}
}

// Start launches the scheduling loop. Returns false if already running.
func (s *Scheduler) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.logger.Info("scheduler already running, start ignored")
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	if s.metrics != nil {
		s.metrics.SchedulerRunning.Set(1)
	}

	s.logger.Info("starting billing scheduler")
	go s.loop(ctx)
	return true
}

// Stop cancels the loop and waits for it to exit. Returns false if the
// scheduler was not running. A pass already in flight runs to completion;
// only the suspension between passes is interrupted.
func (s *Scheduler) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return false
	}

	s.logger.Info("stopping billing scheduler")
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
	if s.metrics != nil {
		s.metrics.SchedulerRunning.Set(0)
	}

	s.logger.Info("billing scheduler stopped")
	return true
}

// Status reports whether the scheduling loop is running.
func (s *Scheduler) Status() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	for {
		if s.clock.Now().Day() == s.triggerDay {
			s.logger.Info("trigger day reached, running billing pass")
			s.runPass(ctx)
		}

		next := firstOfNextMonth(s.clock.Now())
		wait := next.Sub(s.clock.Now())
		s.logger.WithFields(map[string]interface{}{
			"next_boundary": next.Format(time.RFC3339),
			"sleep":         wait.String(),
		}).Info("sleeping until next month boundary")

		if err := s.clock.Sleep(ctx, wait); err != nil {
			s.logger.Info("scheduler loop canceled during suspension")
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// runPass guards the engine call so that neither an error nor a panic can
// kill the loop; the next boundary is always scheduled.
func (s *Scheduler) runPass(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("panic", r).
				WithField("stack", string(debug.Stack())).
				Error("billing pass panicked")
		}
	}()

	// Stop's cancellation only interrupts the suspension between passes. A
	// pass already charging must keep a live context so its store writes
	// land; killing it mid-flight would lose PAID outcomes and re-charge
	// those invoices on the next pass.
	if _, err := s.engine.HandlePayments(context.WithoutCancel(ctx)); err != nil {
		s.logger.WithError(err).Error("billing pass failed")
	}
}

// firstOfNextMonth returns midnight on the first day of the month after now,
// rolling December into January of the next year.
func firstOfNextMonth(now time.Time) time.Time {
	if now.Month() == time.December {
		return time.Date(now.Year()+1, time.January, 1, 0, 0, 0, 0, now.Location())
	}
	return time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location())
}
