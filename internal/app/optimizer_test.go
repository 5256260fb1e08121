package app

import (
	"context"
	"math"
	"testing"

	"github.com/example/responder/internal/models"
)

func optimizerRule() *models.Rule {
	return &models.Rule{
		ID:         "RULE-001",
		ChannelID:  "CHAN-001",
		ActionType: models.ActionRespond,
		Enabled:    true,
		Action:     models.ActionConfig{Respond: &models.RespondConfig{TemplateRef: "tpl"}},
		ABTests: map[string][]models.Variant{
			"greeting": {
				{ID: "A", Weight: 0.5},
				{ID: "B", Weight: 0.5},
			},
		},
	}
}

func TestAutoOptimize_ReweightsSignificantWinner(t *testing.T) {
	rules := newMockRuleRepo(optimizerRule())
	metrics := newMockMetricRepo()
	metrics.byRule["RULE-001"] = []*models.OutcomeMetric{
		{TestID: "greeting", VariantID: "A", Impressions: 1000, Conversions: 500},
		{TestID: "greeting", VariantID: "B", Impressions: 1000, Conversions: 400},
	}

	o := NewOptimizer(rules, metrics, 30, testLogger())
	changed, err := o.AutoOptimize(context.Background(), "RULE-001")
	if err != nil {
		t.Fatalf("AutoOptimize failed: %v", err)
	}
	if !changed {
		t.Fatal("expected weights to change")
	}

	updated, ok := rules.updatedTests["RULE-001"]
	if !ok {
		t.Fatal("expected UpdateABTests to be called")
	}
	for _, v := range updated["greeting"] {
		switch v.ID {
		case "A":
			if math.Abs(v.Weight-0.7) > 1e-9 {
				t.Errorf("expected winner weight 0.7, got %v", v.Weight)
			}
		case "B":
			if math.Abs(v.Weight-0.3) > 1e-9 {
				t.Errorf("expected runner-up weight 0.3, got %v", v.Weight)
			}
		}
	}
}

func TestAutoOptimize_NoChangeWithoutSignificance(t *testing.T) {
	rules := newMockRuleRepo(optimizerRule())
	metrics := newMockMetricRepo()
	metrics.byRule["RULE-001"] = []*models.OutcomeMetric{
		{TestID: "greeting", VariantID: "A", Impressions: 1000, Conversions: 505},
		{TestID: "greeting", VariantID: "B", Impressions: 1000, Conversions: 495},
	}

	o := NewOptimizer(rules, metrics, 30, testLogger())
	changed, err := o.AutoOptimize(context.Background(), "RULE-001")
	if err != nil {
		t.Fatalf("AutoOptimize failed: %v", err)
	}
	if changed {
		t.Error("expected no change for an inconclusive test")
	}
	if _, ok := rules.updatedTests["RULE-001"]; ok {
		t.Error("UpdateABTests must not run without a verdict")
	}
}

func TestAutoOptimize_PausesSignificantlyWorseVariant(t *testing.T) {
	rule := optimizerRule()
	rule.ABTests["greeting"] = append(rule.ABTests["greeting"], models.Variant{ID: "C", Weight: 0.2})

	rules := newMockRuleRepo(rule)
	metrics := newMockMetricRepo()
	metrics.byRule["RULE-001"] = []*models.OutcomeMetric{
		{TestID: "greeting", VariantID: "A", Impressions: 1000, Conversions: 500},
		{TestID: "greeting", VariantID: "B", Impressions: 1000, Conversions: 400},
		{TestID: "greeting", VariantID: "C", Impressions: 1000, Conversions: 100},
	}

	o := NewOptimizer(rules, metrics, 30, testLogger())
	changed, err := o.AutoOptimize(context.Background(), "RULE-001")
	if err != nil {
		t.Fatalf("AutoOptimize failed: %v", err)
	}
	if !changed {
		t.Fatal("expected weights to change")
	}

	for _, v := range rules.updatedTests["RULE-001"]["greeting"] {
		if v.ID == "C" && v.Weight != 0 {
			t.Errorf("expected the worst variant paused at weight 0, got %v", v.Weight)
		}
	}
}

func TestAutoOptimize_RunnerUpKeepsShareInTwoVariantTest(t *testing.T) {
	// With only two variants the losing arm is both the runner-up and the
	// worst variant. The reweighted 30% share must survive the same pass.
	rules := newMockRuleRepo(optimizerRule())
	metrics := newMockMetricRepo()
	metrics.byRule["RULE-001"] = []*models.OutcomeMetric{
		{TestID: "greeting", VariantID: "A", Impressions: 1000, Conversions: 500},
		{TestID: "greeting", VariantID: "B", Impressions: 1000, Conversions: 100},
	}

	o := NewOptimizer(rules, metrics, 30, testLogger())
	changed, err := o.AutoOptimize(context.Background(), "RULE-001")
	if err != nil {
		t.Fatalf("AutoOptimize failed: %v", err)
	}
	if !changed {
		t.Fatal("expected weights to change")
	}

	for _, v := range rules.updatedTests["RULE-001"]["greeting"] {
		if v.ID == "B" && math.Abs(v.Weight-0.3) > 1e-9 {
			t.Errorf("expected runner-up to keep weight 0.3, got %v", v.Weight)
		}
	}
}

func TestAutoOptimize_RuleWithoutTestsIsNoop(t *testing.T) {
	rule := optimizerRule()
	rule.ABTests = nil
	rules := newMockRuleRepo(rule)

	o := NewOptimizer(rules, newMockMetricRepo(), 30, testLogger())
	changed, err := o.AutoOptimize(context.Background(), "RULE-001")
	if err != nil {
		t.Fatalf("AutoOptimize failed: %v", err)
	}
	if changed {
		t.Error("expected no change for a rule without tests")
	}
}
