package scheduler_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/responder/internal/scheduler"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOnceInvokesJob(t *testing.T) {
	var calls atomic.Int64
	s := scheduler.New("test", time.Hour, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}, discardLogger())

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestRunOncePropagatesError(t *testing.T) {
	wantErr := errors.New("boom")
	s := scheduler.New("test", time.Hour, func(ctx context.Context) error {
		return wantErr
	}, discardLogger())

	if err := s.RunOnce(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("expected job error, got %v", err)
	}
}

func TestStartRunsImmediatelyThenTicks(t *testing.T) {
	var calls atomic.Int64
	s := scheduler.New("test", 10*time.Millisecond, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}, discardLogger())

	s.Start(context.Background())
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected at least 3 ticks, got %d", calls.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStopWaitsForLoopExit(t *testing.T) {
	s := scheduler.New("test", time.Hour, func(ctx context.Context) error {
		return nil
	}, discardLogger())

	s.Start(context.Background())
	s.Stop()

	// Stop again is a no-op, not a panic.
	s.Stop()
}

func TestStartTwiceIsNoop(t *testing.T) {
	var calls atomic.Int64
	s := scheduler.New("test", time.Hour, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}, discardLogger())

	s.Start(context.Background())
	s.Start(context.Background())
	defer s.Stop()

	time.Sleep(20 * time.Millisecond)
	if calls.Load() != 1 {
		t.Errorf("expected single immediate run, got %d", calls.Load())
	}
}
