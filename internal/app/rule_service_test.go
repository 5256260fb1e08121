package app

import (
	"context"
	"testing"

	"github.com/example/responder/internal/models"
	"github.com/example/responder/internal/ports/primary"
)

func TestCreateRule_ValidRespondRule(t *testing.T) {
	channels := newMockChannelRepo(&models.Channel{ID: "CHAN-001"})
	rules := newMockRuleRepo()
	s := NewRuleService(rules, channels)

	rule, err := s.CreateRule(context.Background(), primary.CreateRuleRequest{
		ChannelID:  "CHAN-001",
		Name:       "thank commenters",
		Priority:   5,
		ActionType: models.ActionRespond,
		Action:     models.ActionConfig{Respond: &models.RespondConfig{TemplateRef: "tpl-thanks"}},
	})
	if err != nil {
		t.Fatalf("CreateRule failed: %v", err)
	}
	if rule.ID != "RULE-001" {
		t.Errorf("expected RULE-001, got %s", rule.ID)
	}
	if !rule.Enabled {
		t.Error("new rules start enabled")
	}
}

func TestCreateRule_Validation(t *testing.T) {
	channels := newMockChannelRepo(&models.Channel{ID: "CHAN-001"})

	tests := []struct {
		name string
		req  primary.CreateRuleRequest
	}{
		{
			name: "missing name",
			req: primary.CreateRuleRequest{
				ChannelID:  "CHAN-001",
				ActionType: models.ActionRespond,
				Action:     models.ActionConfig{Respond: &models.RespondConfig{TemplateRef: "t"}},
			},
		},
		{
			name: "invalid action type",
			req: primary.CreateRuleRequest{
				ChannelID:  "CHAN-001",
				Name:       "x",
				ActionType: "escalate",
			},
		},
		{
			name: "respond without template",
			req: primary.CreateRuleRequest{
				ChannelID:  "CHAN-001",
				Name:       "x",
				ActionType: models.ActionRespond,
				Action:     models.ActionConfig{Respond: &models.RespondConfig{}},
			},
		},
		{
			name: "unknown channel",
			req: primary.CreateRuleRequest{
				ChannelID:  "CHAN-404",
				Name:       "x",
				ActionType: models.ActionFlag,
				Action:     models.ActionConfig{Flag: &models.FlagConfig{}},
			},
		},
		{
			name: "variant with negative weight",
			req: primary.CreateRuleRequest{
				ChannelID:  "CHAN-001",
				Name:       "x",
				ActionType: models.ActionRespond,
				Action:     models.ActionConfig{Respond: &models.RespondConfig{TemplateRef: "t"}},
				ABTests: map[string][]models.Variant{
					"greeting": {{ID: "A", Weight: -1}},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewRuleService(newMockRuleRepo(), channels)
			if _, err := s.CreateRule(context.Background(), tt.req); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSetEnabled(t *testing.T) {
	rule := respondRule(false)
	rules := newMockRuleRepo(rule)
	s := NewRuleService(rules, newMockChannelRepo())

	if err := s.SetEnabled(context.Background(), "RULE-001", false); err != nil {
		t.Fatalf("SetEnabled failed: %v", err)
	}
	if rule.Enabled {
		t.Error("expected rule disabled")
	}
}
