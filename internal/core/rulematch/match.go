// Package rulematch contains the pure rule-evaluation logic of the engine:
// condition matching and per-run planning. No I/O happens here.
package rulematch

import (
	"strings"

	"github.com/example/responder/internal/models"
)

// DefaultMaxResponses caps a run when no enabled rule sets a limit.
const DefaultMaxResponses = 20

// Matches reports whether a rule's conditions hold for an item. A rule with
// no conditions matches everything. Set conditions are conjunctive:
// classification equality, keyword substring containment (any keyword,
// case-insensitive), and author-status equality must all hold.
func Matches(rule *models.Rule, item *models.QueueItem) bool {
	c := rule.Conditions
	if c.Empty() {
		return true
	}

	if c.Classification != "" && c.Classification != item.Classification {
		return false
	}

	if len(c.Keywords) > 0 {
		body := strings.ToLower(item.Body)
		found := false
		for _, kw := range c.Keywords {
			if kw != "" && strings.Contains(body, strings.ToLower(kw)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if c.AuthorStatus != "" && c.AuthorStatus != item.AuthorStatus {
		return false
	}

	return true
}

// FirstMatch returns the first rule whose conditions match the item. Rules
// must already be ordered by priority descending; that ordering is the
// tie-break when several rules match.
func FirstMatch(rules []*models.Rule, item *models.QueueItem) *models.Rule {
	for _, rule := range rules {
		if Matches(rule, item) {
			return rule
		}
	}
	return nil
}

// RunPlan is the per-channel, per-tick execution budget, computed once and
// passed down rather than re-derived inside the loop.
type RunPlan struct {
	// MaxResponses is the execution cap for the run: the minimum non-zero
	// response_limit_per_run across the channel's enabled rules.
	MaxResponses int
	// AutoPostAllowed is true when any enabled rule dispatches without
	// human approval.
	AutoPostAllowed bool
}

// PlanRun computes the run plan for a channel's enabled rules.
func PlanRun(rules []*models.Rule) RunPlan {
	plan := RunPlan{MaxResponses: DefaultMaxResponses}

	limited := false
	for _, rule := range rules {
		if rule.ResponseLimitPerRun > 0 {
			if !limited || rule.ResponseLimitPerRun < plan.MaxResponses {
				plan.MaxResponses = rule.ResponseLimitPerRun
				limited = true
			}
		}
		if !rule.RequireApproval {
			plan.AutoPostAllowed = true
		}
	}

	return plan
}
