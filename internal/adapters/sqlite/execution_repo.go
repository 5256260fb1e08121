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

// ExecutionLogRepository implements secondary.ExecutionLogRepository with
// SQLite. The log is append-only; nothing here mutates or deletes rows.
type ExecutionLogRepository struct {
	db *sql.DB
}

// NewExecutionLogRepository creates a new SQLite execution log repository.
func NewExecutionLogRepository(db *sql.DB) *ExecutionLogRepository {
	return &ExecutionLogRepository{db: db}
}

// Append writes one execution record and fills in its assigned ID.
func (r *ExecutionLogRepository) Append(ctx context.Context, record *models.ExecutionRecord) error {
	var itemID any
	if record.ItemID != 0 {
		itemID = record.ItemID
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO execution_log (rule_id, item_id, channel_id, action_type, variant_key, outcome, detail, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		nullString(record.RuleID),
		itemID,
		record.ChannelID,
		string(record.ActionType),
		nullString(record.VariantKey),
		record.Outcome,
		nullString(record.Detail),
		record.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to append execution record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read execution record id: %w", err)
	}
	record.ID = id
	return nil
}

// List retrieves records matching the given filters, newest first.
func (r *ExecutionLogRepository) List(ctx context.Context, filters secondary.ExecutionFilters) ([]*models.ExecutionRecord, error) {
	builder := sq.Select("id, rule_id, item_id, channel_id, action_type, variant_key, outcome, detail, duration_ms, created_at").
		From("execution_log").
		OrderBy("id DESC")

	if filters.ChannelID != "" {
		builder = builder.Where(sq.Eq{"channel_id": filters.ChannelID})
	}
	if filters.RuleID != "" {
		builder = builder.Where(sq.Eq{"rule_id": filters.RuleID})
	}
	if filters.Outcome != "" {
		builder = builder.Where(sq.Eq{"outcome": filters.Outcome})
	}
	if filters.Limit > 0 {
		builder = builder.Limit(uint64(filters.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build execution query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list execution records: %w", err)
	}
	defer rows.Close()

	var records []*models.ExecutionRecord
	for rows.Next() {
		var (
			record     models.ExecutionRecord
			ruleID     sql.NullString
			itemID     sql.NullInt64
			variantKey sql.NullString
			detail     sql.NullString
			durationMs int64
			actionType string
		)
		err := rows.Scan(
			&record.ID,
			&ruleID,
			&itemID,
			&record.ChannelID,
			&actionType,
			&variantKey,
			&record.Outcome,
			&detail,
			&durationMs,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution record: %w", err)
		}
		record.RuleID = ruleID.String
		record.ItemID = itemID.Int64
		record.ActionType = models.ActionType(actionType)
		record.VariantKey = variantKey.String
		record.Detail = detail.String
		record.Duration = time.Duration(durationMs) * time.Millisecond
		records = append(records, &record)
	}
	return records, rows.Err()
}

// DailyResponseCounts aggregates respond dispatches per rule per day.
func (r *ExecutionLogRepository) DailyResponseCounts(ctx context.Context, since time.Time) ([]secondary.DailyCount, error) {
	query, args, err := sq.Select("date(created_at) AS day", "rule_id", "COUNT(*)").
		From("execution_log").
		Where(sq.Eq{"action_type": string(models.ActionRespond)}).
		Where(sq.Eq{"outcome": []string{models.OutcomeExecuted, models.OutcomeQueued}}).
		Where(sq.GtOrEq{"created_at": since.UTC()}).
		Where(sq.NotEq{"rule_id": nil}).
		GroupBy("day", "rule_id").
		OrderBy("day", "rule_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build daily counts query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily counts: %w", err)
	}
	defer rows.Close()

	return collectDailyCounts(rows)
}

// CountByOutcome counts records per outcome within the window.
func (r *ExecutionLogRepository) CountByOutcome(ctx context.Context, since time.Time) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT outcome, COUNT(*) FROM execution_log WHERE created_at >= ? GROUP BY outcome`,
		since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to count by outcome: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var outcome string
		var count int64
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, fmt.Errorf("failed to scan outcome count: %w", err)
		}
		counts[outcome] = count
	}
	return counts, rows.Err()
}

func collectDailyCounts(rows *sql.Rows) ([]secondary.DailyCount, error) {
	var counts []secondary.DailyCount
	for rows.Next() {
		var c secondary.DailyCount
		if err := rows.Scan(&c.Day, &c.RuleID, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan daily count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// Ensure ExecutionLogRepository implements the interface
var _ secondary.ExecutionLogRepository = (*ExecutionLogRepository)(nil)
