package models

import "time"

// Execution outcome constants.
const (
	// OutcomeExecuted means the action was carried out (delete done, flag set).
	OutcomeExecuted = "executed"
	// OutcomeQueued means a response was generated and handed to the approval path.
	OutcomeQueued = "queued"
	// OutcomeDeclined means the safety gate recommended against acting.
	OutcomeDeclined = "declined"
	// OutcomeRateLimited means admission control denied the attempt.
	OutcomeRateLimited = "rate_limited"
	// OutcomeFailed means the platform call errored.
	OutcomeFailed = "failed"
)

// ExecutionRecord is one append-only log entry per executor invocation,
// including no-op declines and rate-limit denials.
type ExecutionRecord struct {
	ID         int64
	RuleID     string
	ItemID     int64
	ChannelID  string
	ActionType ActionType
	VariantKey string
	Outcome    string
	Detail     string
	Duration   time.Duration
	CreatedAt  time.Time
}

// Executed reports whether this record represents a completed action that
// counts toward the per-run response cap.
func (r *ExecutionRecord) Executed() bool {
	return r.Outcome == OutcomeExecuted || r.Outcome == OutcomeQueued
}
