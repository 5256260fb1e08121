package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/example/responder/internal/core/rulematch"
	"github.com/example/responder/internal/models"
	"github.com/example/responder/internal/ports/secondary"
)

// pendingFetchLimit caps how many pending items one channel run considers.
const pendingFetchLimit = 100

// Engine runs the automation cycle: per channel, evaluate enabled rules
// against pending items in strict order and execute the first match, up to
// the run's response cap.
type Engine struct {
	channels secondary.ChannelRepository
	rules    secondary.RuleRepository
	queue    secondary.QueueRepository
	executor *Executor
	logger   *slog.Logger
}

// NewEngine creates an automation engine with injected dependencies.
func NewEngine(
	channels secondary.ChannelRepository,
	rules secondary.RuleRepository,
	queue secondary.QueueRepository,
	executor *Executor,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		channels: channels,
		rules:    rules,
		queue:    queue,
		executor: executor,
		logger:   logger,
	}
}

// RunCycle runs one automation tick across every channel that has at least
// one enabled rule. Channels run on their own goroutines; one channel's
// failure never blocks the others.
func (e *Engine) RunCycle(ctx context.Context) error {
	channels, err := e.channels.ListWithEnabledRules(ctx)
	if err != nil {
		return fmt.Errorf("failed to list channels: %w", err)
	}

	var wg sync.WaitGroup
	for _, ch := range channels {
		wg.Add(1)
		go func(channelID string) {
			defer wg.Done()
			if err := e.RunChannel(ctx, channelID); err != nil {
				e.logger.Error("automation run failed", "channel", channelID, "error", err)
			}
		}(ch.ID)
	}
	wg.Wait()

	return nil
}

// RunChannel runs one automation pass for a single channel. Items are
// processed in (priority desc, created_at asc) order; for each item the
// first matching rule is the one executed, and once a rule has been tried
// for an item no further rules are considered for it.
func (e *Engine) RunChannel(ctx context.Context, channelID string) error {
	rules, err := e.rules.ListEnabled(ctx, channelID)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}
	if len(rules) == 0 {
		return nil
	}

	plan := rulematch.PlanRun(rules)

	items, err := e.queue.ListPending(ctx, channelID, pendingFetchLimit)
	if err != nil {
		return fmt.Errorf("failed to load pending items: %w", err)
	}

	executed := 0
	for _, item := range items {
		if executed >= plan.MaxResponses {
			break
		}
		if ctx.Err() != nil {
			break
		}

		rule := rulematch.FirstMatch(rules, item)
		if rule == nil {
			continue
		}

		record := e.executor.Execute(ctx, rule, item)
		if !record.Executed() {
			continue
		}
		executed++

		// A queued respond has an approval entry carrying its text; claiming
		// the item keeps later ticks from rendering duplicates while the
		// entry waits. Downstream posting picks up processing items.
		if rule.ActionType == models.ActionRespond {
			if _, err := e.queue.TransitionStatus(ctx, item.ID, models.ItemStatusPending, models.ItemStatusProcessing); err != nil {
				e.logger.Warn("failed to mark item processing", "item", item.ID, "error", err)
			}
		}
	}

	e.logger.Info("automation run complete",
		"channel", channelID, "items", len(items), "executed", executed,
		"cap", plan.MaxResponses, "autoPost", plan.AutoPostAllowed)
	return nil
}
