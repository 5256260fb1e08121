package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/example/responder/internal/models"
	"github.com/example/responder/internal/ports/secondary"
)

// MetricRepository implements secondary.MetricRepository with SQLite.
// Aggregates accumulate via upserts keyed by (rule, test, variant); raw
// signals also land in the append-only feedback_events table for the
// per-day analytics queries.
type MetricRepository struct {
	db *sql.DB
}

// NewMetricRepository creates a new SQLite metric repository.
func NewMetricRepository(db *sql.DB) *MetricRepository {
	return &MetricRepository{db: db}
}

// RecordImpression increments the impression counter for a variant.
func (r *MetricRepository) RecordImpression(ctx context.Context, ruleID, testID, variantID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO outcome_metrics (rule_id, test_id, variant_id, impressions) VALUES (?, ?, ?, 1)
		 ON CONFLICT(rule_id, test_id, variant_id) DO UPDATE SET impressions = impressions + 1`,
		ruleID, testID, variantID)
	if err != nil {
		return fmt.Errorf("failed to record impression: %w", err)
	}
	return r.appendEvent(ctx, ruleID, testID, variantID, models.FeedbackImpression, 0)
}

// RecordConversion increments the conversion counter for a variant.
func (r *MetricRepository) RecordConversion(ctx context.Context, ruleID, testID, variantID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO outcome_metrics (rule_id, test_id, variant_id, conversions) VALUES (?, ?, ?, 1)
		 ON CONFLICT(rule_id, test_id, variant_id) DO UPDATE SET conversions = conversions + 1`,
		ruleID, testID, variantID)
	if err != nil {
		return fmt.Errorf("failed to record conversion: %w", err)
	}
	return r.appendEvent(ctx, ruleID, testID, variantID, models.FeedbackConversion, 1)
}

// RecordEngagement folds one engagement sample into a variant's aggregates.
func (r *MetricRepository) RecordEngagement(ctx context.Context, ruleID, testID, variantID string, value float64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO outcome_metrics (rule_id, test_id, variant_id, engagement_sum, engagement_sq_sum, samples)
		 VALUES (?, ?, ?, ?, ?, 1)
		 ON CONFLICT(rule_id, test_id, variant_id) DO UPDATE SET
			engagement_sum = engagement_sum + excluded.engagement_sum,
			engagement_sq_sum = engagement_sq_sum + excluded.engagement_sq_sum,
			samples = samples + 1`,
		ruleID, testID, variantID, value, value*value)
	if err != nil {
		return fmt.Errorf("failed to record engagement: %w", err)
	}
	return r.appendEvent(ctx, ruleID, testID, variantID, models.FeedbackEngagement, value)
}

// AppendFeedback appends a feedback event without touching aggregates.
func (r *MetricRepository) AppendFeedback(ctx context.Context, event *models.FeedbackEvent) error {
	return r.appendEvent(ctx, event.RuleID, event.TestID, event.VariantID, event.Kind, event.Value)
}

// GetByRule retrieves all variant aggregates for a rule.
func (r *MetricRepository) GetByRule(ctx context.Context, ruleID string) ([]*models.OutcomeMetric, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT rule_id, test_id, variant_id, impressions, conversions, engagement_sum, engagement_sq_sum, samples
		 FROM outcome_metrics WHERE rule_id = ? ORDER BY test_id, variant_id`,
		ruleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics: %w", err)
	}
	defer rows.Close()

	var metrics []*models.OutcomeMetric
	for rows.Next() {
		var m models.OutcomeMetric
		err := rows.Scan(
			&m.RuleID,
			&m.TestID,
			&m.VariantID,
			&m.Impressions,
			&m.Conversions,
			&m.EngagementSum,
			&m.EngagementSqSum,
			&m.Samples,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan metric: %w", err)
		}
		metrics = append(metrics, &m)
	}
	return metrics, rows.Err()
}

// DailyFeedbackCounts aggregates feedback events of one kind per rule per day.
func (r *MetricRepository) DailyFeedbackCounts(ctx context.Context, kind string, since time.Time) ([]secondary.DailyCount, error) {
	query, args, err := sq.Select("date(created_at) AS day", "rule_id", "COUNT(*)").
		From("feedback_events").
		Where(sq.Eq{"kind": kind}).
		Where(sq.GtOrEq{"created_at": since.UTC()}).
		GroupBy("day", "rule_id").
		OrderBy("day", "rule_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build feedback counts query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback counts: %w", err)
	}
	defer rows.Close()

	return collectDailyCounts(rows)
}

func (r *MetricRepository) appendEvent(ctx context.Context, ruleID, testID, variantID, kind string, value float64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO feedback_events (rule_id, test_id, variant_id, kind, value) VALUES (?, ?, ?, ?, ?)`,
		ruleID, testID, variantID, kind, value)
	if err != nil {
		return fmt.Errorf("failed to append feedback event: %w", err)
	}
	return nil
}

// Ensure MetricRepository implements the interface
var _ secondary.MetricRepository = (*MetricRepository)(nil)
