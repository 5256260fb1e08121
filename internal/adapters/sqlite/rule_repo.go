package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/example/responder/internal/models"
	"github.com/example/responder/internal/ports/secondary"
)

// RuleRepository implements secondary.RuleRepository with SQLite. Conditions,
// action config, and A/B tests are stored as JSON and decoded into typed
// structures at load time.
type RuleRepository struct {
	db *sql.DB
}

// NewRuleRepository creates a new SQLite rule repository.
func NewRuleRepository(db *sql.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

const ruleColumns = `id, channel_id, name, priority, enabled, conditions, action_type, action_config, response_limit_per_run, require_approval, ab_tests, created_at, updated_at`

// Create persists a new rule.
func (r *RuleRepository) Create(ctx context.Context, rule *models.Rule) error {
	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return fmt.Errorf("failed to encode conditions: %w", err)
	}
	actionConfig, err := models.EncodeActionConfig(rule.Action)
	if err != nil {
		return fmt.Errorf("failed to encode action config: %w", err)
	}
	abTests, err := encodeABTests(rule.ABTests)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO rules (id, channel_id, name, priority, enabled, conditions, action_type, action_config, response_limit_per_run, require_approval, ab_tests)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.ID,
		rule.ChannelID,
		rule.Name,
		rule.Priority,
		rule.Enabled,
		string(conditions),
		string(rule.ActionType),
		string(actionConfig),
		rule.ResponseLimitPerRun,
		rule.RequireApproval,
		abTests,
	)
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}
	return nil
}

// GetByID retrieves a rule by its ID.
func (r *RuleRepository) GetByID(ctx context.Context, id string) (*models.Rule, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+ruleColumns+` FROM rules WHERE id = ?`, id)

	rule, err := scanRule(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("rule %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	return rule, nil
}

// ListEnabled retrieves the enabled rules for a channel ordered by priority
// descending. This ordering decides which rule wins when several match.
func (r *RuleRepository) ListEnabled(ctx context.Context, channelID string) ([]*models.Rule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ruleColumns+` FROM rules WHERE channel_id = ? AND enabled = 1 ORDER BY priority DESC, id ASC`,
		channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled rules: %w", err)
	}
	defer rows.Close()

	return collectRules(rows)
}

// List retrieves rules matching the given filters.
func (r *RuleRepository) List(ctx context.Context, filters secondary.RuleFilters) ([]*models.Rule, error) {
	builder := sq.Select(ruleColumns).
		From("rules").
		OrderBy("channel_id", "priority DESC")

	if filters.ChannelID != "" {
		builder = builder.Where(sq.Eq{"channel_id": filters.ChannelID})
	}
	if filters.Enabled != nil {
		builder = builder.Where(sq.Eq{"enabled": *filters.Enabled})
	}
	if filters.Limit > 0 {
		builder = builder.Limit(uint64(filters.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build rule query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	return collectRules(rows)
}

// SetEnabled enables or disables a rule.
func (r *RuleRepository) SetEnabled(ctx context.Context, id string, enabled bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE rules SET enabled = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, enabled, id)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("rule %s not found", id)
	}
	return nil
}

// UpdateABTests persists reweighted A/B test definitions for a rule.
func (r *RuleRepository) UpdateABTests(ctx context.Context, id string, tests map[string][]models.Variant) error {
	encoded, err := encodeABTests(tests)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE rules SET ab_tests = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, encoded, id)
	if err != nil {
		return fmt.Errorf("failed to update ab tests: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("rule %s not found", id)
	}
	return nil
}

// GetNextID returns the next available rule ID.
func (r *RuleRepository) GetNextID(ctx context.Context) (string, error) {
	var maxID int
	prefixLen := len("RULE-") + 1
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COALESCE(MAX(CAST(SUBSTR(id, %d) AS INTEGER)), 0) FROM rules", prefixLen),
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next rule ID: %w", err)
	}
	return fmt.Sprintf("RULE-%03d", maxID+1), nil
}

func scanRule(row rowScanner) (*models.Rule, error) {
	var (
		rule         models.Rule
		conditions   string
		actionType   string
		actionConfig string
		abTests      string
	)
	err := row.Scan(
		&rule.ID,
		&rule.ChannelID,
		&rule.Name,
		&rule.Priority,
		&rule.Enabled,
		&conditions,
		&actionType,
		&actionConfig,
		&rule.ResponseLimitPerRun,
		&rule.RequireApproval,
		&abTests,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(conditions), &rule.Conditions); err != nil {
		return nil, fmt.Errorf("rule %s has invalid conditions: %w", rule.ID, err)
	}

	rule.ActionType = models.ActionType(actionType)
	rule.Action, err = models.DecodeActionConfig(rule.ActionType, []byte(actionConfig))
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", rule.ID, err)
	}

	rule.ABTests, err = models.DecodeABTests([]byte(abTests))
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", rule.ID, err)
	}

	return &rule, nil
}

func collectRules(rows *sql.Rows) ([]*models.Rule, error) {
	var rules []*models.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func encodeABTests(tests map[string][]models.Variant) (string, error) {
	if len(tests) == 0 {
		return "{}", nil
	}
	encoded, err := json.Marshal(tests)
	if err != nil {
		return "", fmt.Errorf("failed to encode ab tests: %w", err)
	}
	return string(encoded), nil
}

// Ensure RuleRepository implements the interface
var _ secondary.RuleRepository = (*RuleRepository)(nil)
