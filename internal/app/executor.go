package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/example/responder/internal/core/ratelimit"
	"github.com/example/responder/internal/core/variant"
	"github.com/example/responder/internal/models"
	"github.com/example/responder/internal/ports/primary"
	"github.com/example/responder/internal/ports/secondary"
)

// Pacing ranges per action type. Dispatches sleep a random duration in range
// so outbound actions do not land in bot-like bursts.
const (
	respondPaceMin = 500 * time.Millisecond
	respondPaceMax = 2 * time.Second
	deletePaceMin  = 1 * time.Second
	deletePaceMax  = 2500 * time.Millisecond
)

// ExecutorConfig carries the admission ceilings and approval deadline the
// executor applies per dispatch.
type ExecutorConfig struct {
	RespondPerMinute int
	DeletePerMinute  int
	FlagPerMinute    int
	AutoApproveAfter time.Duration
}

// ExecutorDeps bundles the executor's collaborators for construction.
type ExecutorDeps struct {
	Limiter    ratelimit.Limiter
	Selector   *variant.Selector
	Renderer   secondary.TemplateRenderer
	Moderation secondary.SafetyModeration
	Connector  secondary.SourceConnector
	Queue      secondary.QueueRepository
	ExecLog    secondary.ExecutionLogRepository
	Metrics    secondary.MetricRepository
	Approvals  primary.ApprovalService
}

// Executor carries a matched (rule, item) pair through admission, pacing,
// variant selection, rendering, safety gating and dispatch. Every invocation
// appends exactly one execution record, including denials and declines.
type Executor struct {
	deps   ExecutorDeps
	cfg    ExecutorConfig
	logger *slog.Logger

	// pace and now are injectable so tests run without sleeping.
	pace func(ctx context.Context, d time.Duration)
	now  func() time.Time

	// randMu guards rng and the selector's shared random source; executions
	// for different channels run on separate goroutines.
	randMu sync.Mutex
	rng    *rand.Rand
}

// NewExecutor creates an executor. rng seeds pacing jitter and must be the
// same source handed to the selector when reproducibility matters.
func NewExecutor(deps ExecutorDeps, cfg ExecutorConfig, rng *rand.Rand, logger *slog.Logger) *Executor {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Executor{
		deps:   deps,
		cfg:    cfg,
		logger: logger,
		pace:   sleepWithContext,
		now:    time.Now,
		rng:    rng,
	}
}

// Execute runs the full dispatch pipeline for a matched rule and item. It
// never returns an error: failures are captured in the record's outcome so
// the engine continues with the next item.
func (e *Executor) Execute(ctx context.Context, rule *models.Rule, item *models.QueueItem) *models.ExecutionRecord {
	start := e.now()
	record := &models.ExecutionRecord{
		RuleID:     rule.ID,
		ItemID:     item.ID,
		ChannelID:  item.ChannelID,
		ActionType: rule.ActionType,
	}

	if !e.deps.Limiter.Allow(limiterKey(item.ChannelID, rule.ActionType), e.ceiling(rule.ActionType)) {
		record.Outcome = models.OutcomeRateLimited
		e.logger.Debug("dispatch rate limited",
			"channel", item.ChannelID, "rule", rule.ID, "action", rule.ActionType)
		e.finish(ctx, record, start)
		return record
	}

	e.pause(ctx, rule.ActionType)

	switch rule.ActionType {
	case models.ActionRespond:
		e.respond(ctx, rule, item, record)
	case models.ActionDelete:
		e.delete(ctx, rule, item, record)
	case models.ActionFlag:
		e.flag(ctx, rule, item, record)
	default:
		record.Outcome = models.OutcomeFailed
		record.Detail = fmt.Sprintf("unknown action type: %s", rule.ActionType)
	}

	e.finish(ctx, record, start)

	if rule.ActionType == models.ActionRespond && record.Executed() {
		testID, variantID := variant.Split(record.VariantKey)
		if err := e.deps.Metrics.RecordImpression(ctx, rule.ID, testID, variantID); err != nil {
			e.logger.Warn("failed to record impression",
				"rule", rule.ID, "variant", record.VariantKey, "error", err)
		}
	}

	return record
}

// respond renders the selected variant and hands the text to the approval
// path. Generation is decoupled from publication: the queue, not the
// executor, decides when text reaches the platform.
func (e *Executor) respond(ctx context.Context, rule *models.Rule, item *models.QueueItem, record *models.ExecutionRecord) {
	cfg := rule.Action.Respond
	if cfg == nil {
		record.Outcome = models.OutcomeFailed
		record.Detail = "respond action has no config"
		return
	}

	key := e.selectVariant(rule)
	record.VariantKey = key

	text, err := e.deps.Renderer.Render(ctx, e.templateRef(rule, cfg, key), item)
	if err != nil {
		record.Outcome = models.OutcomeFailed
		record.Detail = err.Error()
		e.logger.Warn("render failed", "rule", rule.ID, "item", item.ID, "error", err)
		return
	}
	if cfg.Signature != "" {
		text = text + "\n\n" + cfg.Signature
	}

	// Publication is always mediated by the approval queue: the entry carries
	// the rendered text the downstream poster publishes. Auto-post rules queue
	// with an immediate deadline so the sweep releases them on its next tick;
	// approval rules wait out the configured window (zero means wait forever).
	var deadline *time.Time
	switch {
	case !rule.RequireApproval:
		t := e.now()
		deadline = &t
	case e.cfg.AutoApproveAfter > 0:
		t := e.now().Add(e.cfg.AutoApproveAfter)
		deadline = &t
	}

	_, err = e.deps.Approvals.Add(ctx, primary.AddApprovalRequest{
		ChannelID: item.ChannelID,
		ActionRef: fmt.Sprintf("item-%d", item.ID),
		Payload: models.ApprovalPayload{
			ItemID:     item.ID,
			RuleID:     rule.ID,
			VariantKey: key,
			Text:       text,
		},
		Priority:      item.Priority,
		AutoApproveAt: deadline,
	})
	if err != nil {
		record.Outcome = models.OutcomeFailed
		record.Detail = err.Error()
		e.logger.Warn("failed to queue approval", "rule", rule.ID, "item", item.ID, "error", err)
		return
	}

	record.Outcome = models.OutcomeQueued
}

// delete asks the moderation collaborator for a verdict before touching the
// platform. A negative verdict is a logged decline, not an error.
func (e *Executor) delete(ctx context.Context, rule *models.Rule, item *models.QueueItem, record *models.ExecutionRecord) {
	cfg := rule.Action.Delete
	if cfg == nil {
		record.Outcome = models.OutcomeFailed
		record.Detail = "delete action has no config"
		return
	}

	decision, err := e.deps.Moderation.EvaluateDeleteCriteria(ctx, item, cfg)
	if err != nil {
		record.Outcome = models.OutcomeFailed
		record.Detail = err.Error()
		e.logger.Warn("moderation check failed", "rule", rule.ID, "item", item.ID, "error", err)
		return
	}

	if !decision.RecommendedDelete || decision.Legitimate {
		record.Outcome = models.OutcomeDeclined
		record.Detail = decision.Reason
		e.logger.Info("delete declined",
			"rule", rule.ID, "item", item.ID,
			"confidence", decision.Confidence, "reason", decision.Reason)
		return
	}

	if err := e.deps.Connector.DeleteItem(ctx, item.ChannelID, item.ExternalID); err != nil {
		record.Outcome = models.OutcomeFailed
		record.Detail = err.Error()
		e.logger.Warn("platform delete failed", "rule", rule.ID, "item", item.ID, "error", err)
		return
	}

	if _, err := e.deps.Queue.TransitionStatus(ctx, item.ID, item.Status, models.ItemStatusDone); err != nil {
		e.logger.Warn("failed to mark item done", "item", item.ID, "error", err)
	}
	record.Outcome = models.OutcomeExecuted
}

// flag claims the item into needs_review. A racing worker that already
// claimed it simply wins; the loser's outcome is a decline.
func (e *Executor) flag(ctx context.Context, rule *models.Rule, item *models.QueueItem, record *models.ExecutionRecord) {
	claimed, err := e.deps.Queue.TransitionStatus(ctx, item.ID, models.ItemStatusPending, models.ItemStatusNeedsReview)
	if err != nil {
		record.Outcome = models.OutcomeFailed
		record.Detail = err.Error()
		return
	}
	if !claimed {
		record.Outcome = models.OutcomeDeclined
		record.Detail = "item already claimed"
		return
	}

	if cfg := rule.Action.Flag; cfg != nil {
		record.Detail = cfg.Reason
	}
	record.Outcome = models.OutcomeExecuted
}

func (e *Executor) finish(ctx context.Context, record *models.ExecutionRecord, start time.Time) {
	record.Duration = e.now().Sub(start)
	if err := e.deps.ExecLog.Append(ctx, record); err != nil {
		e.logger.Error("failed to append execution record",
			"rule", record.RuleID, "item", record.ItemID, "error", err)
	}
}

func (e *Executor) selectVariant(rule *models.Rule) string {
	e.randMu.Lock()
	defer e.randMu.Unlock()
	return e.deps.Selector.Select(rule, "")
}

// templateRef resolves the template to render: the selected variant's
// reference when it carries one, the rule's base template otherwise.
func (e *Executor) templateRef(rule *models.Rule, cfg *models.RespondConfig, key string) string {
	testID, variantID := variant.Split(key)
	for _, v := range rule.ABTests[testID] {
		if v.ID == variantID && v.TemplateRef != "" {
			return v.TemplateRef
		}
	}
	return cfg.TemplateRef
}

func (e *Executor) pause(ctx context.Context, action models.ActionType) {
	lo, hi := respondPaceMin, respondPaceMax
	if action == models.ActionDelete {
		lo, hi = deletePaceMin, deletePaceMax
	}

	e.randMu.Lock()
	d := lo + time.Duration(e.rng.Float64()*float64(hi-lo))
	e.randMu.Unlock()

	e.pace(ctx, d)
}

func (e *Executor) ceiling(action models.ActionType) int {
	switch action {
	case models.ActionDelete:
		return e.cfg.DeletePerMinute
	case models.ActionFlag:
		return e.cfg.FlagPerMinute
	default:
		return e.cfg.RespondPerMinute
	}
}

func limiterKey(channelID string, action models.ActionType) string {
	return channelID + ":" + string(action)
}

// sleepWithContext waits for d or until the context is cancelled, whichever
// comes first. No lock is held while waiting.
func sleepWithContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
