package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ActionType identifies what a rule does when it matches.
type ActionType string

const (
	// ActionRespond generates a templated reply for the matched item.
	ActionRespond ActionType = "respond"
	// ActionDelete removes the matched item from the platform.
	ActionDelete ActionType = "delete"
	// ActionFlag routes the matched item to human review.
	ActionFlag ActionType = "flag"
)

// Valid reports whether the action type is one of the known values.
func (a ActionType) Valid() bool {
	switch a {
	case ActionRespond, ActionDelete, ActionFlag:
		return true
	}
	return false
}

// Conditions is the predicate a rule evaluates against a queue item.
// A zero-value Conditions matches every item.
type Conditions struct {
	Classification string   `json:"classification,omitempty"`
	Keywords       []string `json:"keywords,omitempty"`
	AuthorStatus   string   `json:"author_status,omitempty"`
}

// Empty reports whether no condition is set.
func (c Conditions) Empty() bool {
	return c.Classification == "" && len(c.Keywords) == 0 && c.AuthorStatus == ""
}

// RespondConfig configures a respond action.
type RespondConfig struct {
	TemplateRef string `json:"template_ref"`
	Signature   string `json:"signature,omitempty"`
}

// DeleteConfig configures a delete action. The criteria are passed through
// to the moderation collaborator which makes the final recommendation.
type DeleteConfig struct {
	MinConfidence float64  `json:"min_confidence,omitempty"`
	Categories    []string `json:"categories,omitempty"`
}

// FlagConfig configures a flag action.
type FlagConfig struct {
	Reason string `json:"reason,omitempty"`
}

// ActionConfig is the typed union of per-action configuration. Exactly one
// branch is populated, matching the rule's ActionType.
type ActionConfig struct {
	Respond *RespondConfig
	Delete  *DeleteConfig
	Flag    *FlagConfig
}

// Variant is one arm of a named A/B test belonging to a rule.
type Variant struct {
	ID          string  `json:"id"`
	Weight      float64 `json:"weight"`
	TemplateRef string  `json:"template_ref,omitempty"`
}

// Rule is a named automation policy scoped to a channel. Rules are read-only
// to the engine during a run; the reweighting feedback loop mutates them
// out-of-band.
type Rule struct {
	ID                  string
	ChannelID           string
	Name                string
	Priority            int
	Enabled             bool
	Conditions          Conditions
	ActionType          ActionType
	Action              ActionConfig
	ResponseLimitPerRun int
	RequireApproval     bool
	ABTests             map[string][]Variant
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// DecodeActionConfig parses the stored JSON blob into the typed branch for
// the given action type. Invalid JSON is rejected at load time so untyped
// maps never reach execution.
func DecodeActionConfig(actionType ActionType, raw []byte) (ActionConfig, error) {
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	var cfg ActionConfig
	switch actionType {
	case ActionRespond:
		cfg.Respond = &RespondConfig{}
		if err := json.Unmarshal(raw, cfg.Respond); err != nil {
			return ActionConfig{}, fmt.Errorf("failed to decode respond config: %w", err)
		}
	case ActionDelete:
		cfg.Delete = &DeleteConfig{}
		if err := json.Unmarshal(raw, cfg.Delete); err != nil {
			return ActionConfig{}, fmt.Errorf("failed to decode delete config: %w", err)
		}
	case ActionFlag:
		cfg.Flag = &FlagConfig{}
		if err := json.Unmarshal(raw, cfg.Flag); err != nil {
			return ActionConfig{}, fmt.Errorf("failed to decode flag config: %w", err)
		}
	default:
		return ActionConfig{}, fmt.Errorf("unknown action type: %s", actionType)
	}

	return cfg, nil
}

// EncodeActionConfig serializes the populated branch back to JSON.
func EncodeActionConfig(cfg ActionConfig) ([]byte, error) {
	switch {
	case cfg.Respond != nil:
		return json.Marshal(cfg.Respond)
	case cfg.Delete != nil:
		return json.Marshal(cfg.Delete)
	case cfg.Flag != nil:
		return json.Marshal(cfg.Flag)
	}
	return []byte("{}"), nil
}

// DecodeABTests parses the stored A/B test JSON. Variant weights must be
// non-negative; a zero weight keeps the variant defined but unselectable
// (pausing rather than deleting preserves auditability).
func DecodeABTests(raw []byte) (map[string][]Variant, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	tests := map[string][]Variant{}
	if err := json.Unmarshal(raw, &tests); err != nil {
		return nil, fmt.Errorf("failed to decode ab tests: %w", err)
	}

	for testID, variants := range tests {
		for _, v := range variants {
			if v.ID == "" {
				return nil, fmt.Errorf("test %s has a variant without an id", testID)
			}
			if v.Weight < 0 {
				return nil, fmt.Errorf("test %s variant %s has negative weight %v", testID, v.ID, v.Weight)
			}
		}
	}

	return tests, nil
}
