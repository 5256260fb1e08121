// Package scheduler runs background loops on fixed-interval ticks.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is one tick's worth of work. Errors are logged, never fatal: the next
// tick retries from a clean state.
type Job func(ctx context.Context) error

// Scheduler drives a Job on a fixed interval. Tests call RunOnce to drive a
// single tick deterministically instead of sleeping.
type Scheduler struct {
	name     string
	interval time.Duration
	job      Job
	logger   *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// New creates a scheduler for the named loop.
func New(name string, interval time.Duration, job Job, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		name:     name,
		interval: interval,
		job:      job,
		logger:   logger,
	}
}

// Start launches the loop. The first tick runs immediately; subsequent ticks
// follow the configured interval. Start is a no-op while already running.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.started = true

	go s.loop(ctx)
}

// Stop signals the loop to exit and waits for the current tick to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	done := s.done
	s.started = false
	s.mu.Unlock()

	cancel()
	<-done
}

// RunOnce executes a single tick synchronously.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()
	err := s.job(ctx)
	if err != nil {
		s.logger.Warn("tick failed", "loop", s.name, "elapsed", time.Since(start), "error", err)
		return err
	}
	s.logger.Debug("tick complete", "loop", s.name, "elapsed", time.Since(start))
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	s.logger.Info("loop started", "loop", s.name, "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Immediate first run, then tick.
	_ = s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("loop stopped", "loop", s.name)
			return
		case <-ticker.C:
			_ = s.RunOnce(ctx)
		}
	}
}
