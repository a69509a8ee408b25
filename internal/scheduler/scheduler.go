package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"auto-topup-go/internal/models"

	"go.uber.org/zap"
)

var ErrCycleRunning = errors.New("a cycle is already in progress")

type State string

const (
	StateIdle    State = "IDLE"
	StateRunning State = "RUNNING"
)

// Status is a snapshot of the scheduler for operators.
type Status struct {
	State        State         `json:"state"`
	Interval     time.Duration `json:"interval"`
	CycleBusy    bool          `json:"cycleBusy"`
	RefusedTicks int64         `json:"refusedTicks"`
	LastCycleAt  *time.Time    `json:"lastCycleAt,omitempty"`
}

// CycleFunc runs one reconciliation pass and reports its summary.
type CycleFunc func(ctx context.Context) models.CycleSummary

// Scheduler drives periodic cycles with an explicit idle/running state.
// Overlapping cycles are never started: if a tick fires while the previous
// cycle is still in flight, the tick is refused and counted.
type Scheduler struct {
	interval time.Duration
	run      CycleFunc

	mu           sync.Mutex
	state        State
	cycleBusy    bool
	refusedTicks int64
	lastCycleAt  *time.Time
	stopCh       chan struct{}
	doneCh       chan struct{}
}

func New(interval time.Duration, run CycleFunc) *Scheduler {
	return &Scheduler{
		interval: interval,
		run:      run,
		state:    StateIdle,
	}
}

// Start transitions the scheduler to RUNNING and begins ticking. Starting a
// running scheduler is a no-op; there is never a second loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateRunning {
		return
	}

	s.state = StateRunning
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	go s.loop(ctx, s.stopCh, s.doneCh)

	zap.L().Info("Scheduler started", zap.Duration("interval", s.interval))
}

// Stop transitions to IDLE and blocks until the loop has exited. A cycle
// already in flight is allowed to finish. Stopping an idle scheduler is a
// no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return
	}
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	close(stopCh)
	<-doneCh

	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()

	zap.L().Info("Scheduler stopped")
}

// Restart stops the loop if it is running and starts a fresh one.
func (s *Scheduler) Restart(ctx context.Context) {
	s.Stop()
	s.Start(ctx)
}

// TriggerNow runs one cycle immediately, outside the tick schedule, and
// returns the summary that cycle produced. It refuses rather than queues
// when a cycle is already in flight.
func (s *Scheduler) TriggerNow(ctx context.Context) (models.CycleSummary, error) {
	if !s.beginCycle() {
		return models.CycleSummary{}, ErrCycleRunning
	}
	defer s.endCycle()

	return s.run(ctx), nil
}

// Running reports whether a cycle is currently in flight.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cycleBusy
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		State:        s.state,
		Interval:     s.interval,
		CycleBusy:    s.cycleBusy,
		RefusedTicks: s.refusedTicks,
		LastCycleAt:  s.lastCycleAt,
	}
}

func (s *Scheduler) loop(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.beginCycle() {
				s.mu.Lock()
				s.refusedTicks++
				refused := s.refusedTicks
				s.mu.Unlock()
				zap.L().Warn("Skipping tick, previous cycle still in flight",
					zap.Int64("refusedTicks", refused))
				continue
			}
			s.run(ctx)
			s.endCycle()
		}
	}
}

func (s *Scheduler) beginCycle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cycleBusy {
		return false
	}
	s.cycleBusy = true
	return true
}

func (s *Scheduler) endCycle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycleBusy = false
	now := time.Now().UTC()
	s.lastCycleAt = &now
}
