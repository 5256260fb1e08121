package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/responder/internal/core/stats"
	"github.com/example/responder/internal/core/variant"
	"github.com/example/responder/internal/ports/secondary"
)

// Optimizer closes the feedback loop: it runs the significance engine over a
// rule's tests and persists reweighted variants when a winner emerges.
type Optimizer struct {
	rules      secondary.RuleRepository
	metrics    secondary.MetricRepository
	minSamples int
	logger     *slog.Logger
}

// NewOptimizer creates an optimizer with injected dependencies.
func NewOptimizer(rules secondary.RuleRepository, metrics secondary.MetricRepository, minSamples int, logger *slog.Logger) *Optimizer {
	return &Optimizer{
		rules:      rules,
		metrics:    metrics,
		minSamples: minSamples,
		logger:     logger,
	}
}

// AutoOptimize evaluates every test embedded in the rule. A winner at the
// significance level takes 70% of the weight with the remaining 30% split
// among the other active variants; significantly-worse variants are paused
// by zeroing their weight. Returns true when any weights were persisted.
func (o *Optimizer) AutoOptimize(ctx context.Context, ruleID string) (bool, error) {
	rule, err := o.rules.GetByID(ctx, ruleID)
	if err != nil {
		return false, fmt.Errorf("failed to load rule: %w", err)
	}
	if len(rule.ABTests) == 0 {
		return false, nil
	}

	aggregates, err := o.metrics.GetByRule(ctx, ruleID)
	if err != nil {
		return false, fmt.Errorf("failed to load metrics: %w", err)
	}

	byTest := map[string][]stats.VariantStats{}
	for _, m := range aggregates {
		byTest[m.TestID] = append(byTest[m.TestID], stats.VariantStats{
			VariantID:      m.VariantID,
			Impressions:    m.Impressions,
			Conversions:    m.Conversions,
			Samples:        m.Samples,
			EngagementMean: m.EngagementMean(),
			EngagementStd:  m.EngagementStdDev(),
		})
	}

	changed := false
	for testID, variants := range rule.ABTests {
		outcome := stats.Evaluate(testID, byTest[testID], o.minSamples)

		if outcome.Significant() {
			rule.ABTests[testID] = variant.Reweight(variants, outcome.Winner)
			changed = true
			o.logger.Info("test winner reweighted",
				"rule", ruleID, "test", testID,
				"winner", outcome.Winner, "p", outcome.PValue, "metric", outcome.Metric)
		}

		for _, s := range outcome.Suggestions {
			if s.Kind != stats.SuggestPauseVariant {
				continue
			}
			// The runner-up keeps the 30% share a reweight just granted it;
			// pausing applies only to variants below the top two.
			if s.VariantID == outcome.RunnerUp {
				continue
			}
			rule.ABTests[testID] = variant.Pause(rule.ABTests[testID], s.VariantID)
			changed = true
			o.logger.Info("variant paused",
				"rule", ruleID, "test", testID, "variant", s.VariantID, "p", s.PValue)
		}
	}

	if !changed {
		return false, nil
	}

	if err := o.rules.UpdateABTests(ctx, rule.ID, rule.ABTests); err != nil {
		return false, fmt.Errorf("failed to persist weights: %w", err)
	}
	return true, nil
}
