package primary

import (
	"context"

	"github.com/example/responder/internal/models"
)

// CreateRuleRequest carries the fields for a new automation rule.
type CreateRuleRequest struct {
	ChannelID           string
	Name                string
	Priority            int
	Conditions          models.Conditions
	ActionType          models.ActionType
	Action              models.ActionConfig
	ResponseLimitPerRun int
	RequireApproval     bool
	ABTests             map[string][]models.Variant
}

// RuleService is the primary port for rule management.
type RuleService interface {
	// CreateRule validates and persists a new rule.
	CreateRule(ctx context.Context, req CreateRuleRequest) (*models.Rule, error)

	// GetRule retrieves a rule by ID.
	GetRule(ctx context.Context, id string) (*models.Rule, error)

	// ListRules lists rules, optionally scoped to a channel.
	ListRules(ctx context.Context, channelID string) ([]*models.Rule, error)

	// SetEnabled enables or disables a rule.
	SetEnabled(ctx context.Context, id string, enabled bool) error
}

// QueueService is the primary port for queue inspection.
type QueueService interface {
	// ListItems lists queue items filtered by channel and status.
	ListItems(ctx context.Context, channelID, status string, limit int) ([]*models.QueueItem, error)

	// GetItem retrieves a queue item by ID.
	GetItem(ctx context.Context, id int64) (*models.QueueItem, error)
}
