package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/example/responder/internal/adapters/sqlite"
	"github.com/example/responder/internal/models"
)

func TestMetricRepository_Accumulation(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewMetricRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := repo.RecordImpression(ctx, "RULE-001", "greeting", "A"); err != nil {
			t.Fatalf("RecordImpression failed: %v", err)
		}
	}
	if err := repo.RecordConversion(ctx, "RULE-001", "greeting", "A"); err != nil {
		t.Fatalf("RecordConversion failed: %v", err)
	}
	for _, v := range []float64{2, 4} {
		if err := repo.RecordEngagement(ctx, "RULE-001", "greeting", "B", v); err != nil {
			t.Fatalf("RecordEngagement failed: %v", err)
		}
	}

	metrics, err := repo.GetByRule(ctx, "RULE-001")
	if err != nil {
		t.Fatalf("GetByRule failed: %v", err)
	}
	if len(metrics) != 2 {
		t.Fatalf("len(metrics) = %d, want 2", len(metrics))
	}

	a, b := metrics[0], metrics[1]
	if a.VariantID != "A" || b.VariantID != "B" {
		t.Fatalf("variants = %s, %s, want A, B", a.VariantID, b.VariantID)
	}
	if a.Impressions != 3 || a.Conversions != 1 {
		t.Errorf("A = %d impressions / %d conversions, want 3/1", a.Impressions, a.Conversions)
	}
	if b.Samples != 2 || b.EngagementSum != 6 || b.EngagementSqSum != 20 {
		t.Errorf("B = samples %d sum %v sqsum %v, want 2/6/20", b.Samples, b.EngagementSum, b.EngagementSqSum)
	}
	if mean := b.EngagementMean(); mean != 3 {
		t.Errorf("B mean = %v, want 3", mean)
	}
}

func TestMetricRepository_DailyFeedbackCounts(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewMetricRepository(db)
	ctx := context.Background()

	if err := repo.RecordConversion(ctx, "RULE-001", "greeting", "A"); err != nil {
		t.Fatalf("RecordConversion failed: %v", err)
	}
	if err := repo.AppendFeedback(ctx, &models.FeedbackEvent{
		RuleID: "RULE-001", Kind: models.FeedbackApproval,
	}); err != nil {
		t.Fatalf("AppendFeedback failed: %v", err)
	}

	since := time.Now().UTC().Add(-time.Hour)
	counts, err := repo.DailyFeedbackCounts(ctx, models.FeedbackConversion, since)
	if err != nil {
		t.Fatalf("DailyFeedbackCounts failed: %v", err)
	}
	if len(counts) != 1 {
		t.Fatalf("len(counts) = %d, want 1", len(counts))
	}
	if counts[0].RuleID != "RULE-001" || counts[0].Count != 1 {
		t.Errorf("count = %+v, want RULE-001/1", counts[0])
	}
}
