package app

import (
	"context"
	"fmt"
	"time"

	"github.com/example/responder/internal/models"
	"github.com/example/responder/internal/ports/primary"
	"github.com/example/responder/internal/ports/secondary"
)

// RuleServiceImpl implements the RuleService interface.
type RuleServiceImpl struct {
	rules    secondary.RuleRepository
	channels secondary.ChannelRepository
}

// NewRuleService creates a RuleService with injected dependencies.
func NewRuleService(rules secondary.RuleRepository, channels secondary.ChannelRepository) *RuleServiceImpl {
	return &RuleServiceImpl{rules: rules, channels: channels}
}

// CreateRule validates and persists a new rule. New rules start enabled.
func (s *RuleServiceImpl) CreateRule(ctx context.Context, req primary.CreateRuleRequest) (*models.Rule, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("rule name is required")
	}
	if !req.ActionType.Valid() {
		return nil, fmt.Errorf("invalid action type: %s", req.ActionType)
	}
	if err := validateActionConfig(req.ActionType, req.Action); err != nil {
		return nil, err
	}

	if _, err := s.channels.GetByID(ctx, req.ChannelID); err != nil {
		return nil, fmt.Errorf("channel not found: %w", err)
	}

	for testID, variants := range req.ABTests {
		if len(variants) == 0 {
			return nil, fmt.Errorf("test %s has no variants", testID)
		}
		for _, v := range variants {
			if v.ID == "" {
				return nil, fmt.Errorf("test %s has a variant without an id", testID)
			}
			if v.Weight < 0 {
				return nil, fmt.Errorf("test %s variant %s has negative weight", testID, v.ID)
			}
		}
	}

	id, err := s.rules.GetNextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate rule id: %w", err)
	}

	now := time.Now()
	rule := &models.Rule{
		ID:                  id,
		ChannelID:           req.ChannelID,
		Name:                req.Name,
		Priority:            req.Priority,
		Enabled:             true,
		Conditions:          req.Conditions,
		ActionType:          req.ActionType,
		Action:              req.Action,
		ResponseLimitPerRun: req.ResponseLimitPerRun,
		RequireApproval:     req.RequireApproval,
		ABTests:             req.ABTests,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.rules.Create(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to create rule: %w", err)
	}

	return rule, nil
}

// GetRule retrieves a rule by ID.
func (s *RuleServiceImpl) GetRule(ctx context.Context, id string) (*models.Rule, error) {
	return s.rules.GetByID(ctx, id)
}

// ListRules lists rules, optionally scoped to a channel.
func (s *RuleServiceImpl) ListRules(ctx context.Context, channelID string) ([]*models.Rule, error) {
	rules, err := s.rules.List(ctx, secondary.RuleFilters{ChannelID: channelID})
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	return rules, nil
}

// SetEnabled enables or disables a rule.
func (s *RuleServiceImpl) SetEnabled(ctx context.Context, id string, enabled bool) error {
	if err := s.rules.SetEnabled(ctx, id, enabled); err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}
	return nil
}

func validateActionConfig(actionType models.ActionType, cfg models.ActionConfig) error {
	switch actionType {
	case models.ActionRespond:
		if cfg.Respond == nil || cfg.Respond.TemplateRef == "" {
			return fmt.Errorf("respond rules require a template reference")
		}
	case models.ActionDelete:
		if cfg.Delete == nil {
			return fmt.Errorf("delete rules require delete criteria")
		}
	case models.ActionFlag:
		if cfg.Flag == nil {
			return fmt.Errorf("flag rules require a flag config")
		}
	}
	return nil
}

// Ensure RuleServiceImpl implements the interface
var _ primary.RuleService = (*RuleServiceImpl)(nil)
