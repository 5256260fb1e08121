// Package secondary defines the secondary ports (driven adapters) for the engine.
// These are the interfaces through which the engine drives external systems.
package secondary

import (
	"context"
	"time"

	"github.com/example/responder/internal/models"
)

// ChannelRepository defines the secondary port for channel persistence.
type ChannelRepository interface {
	// Create persists a new channel.
	Create(ctx context.Context, channel *models.Channel) error

	// GetByID retrieves a channel by its ID.
	GetByID(ctx context.Context, id string) (*models.Channel, error)

	// List retrieves all channels, optionally only those with polling enabled.
	List(ctx context.Context, pollingOnly bool) ([]*models.Channel, error)

	// ListWithEnabledRules retrieves channels that have at least one enabled rule.
	ListWithEnabledRules(ctx context.Context) ([]*models.Channel, error)

	// SetLastPolled records when a channel was last polled.
	SetLastPolled(ctx context.Context, id string, at time.Time) error

	// GetNextID returns the next available channel ID.
	GetNextID(ctx context.Context) (string, error)
}

// QueueRepository defines the secondary port for queue item persistence.
type QueueRepository interface {
	// InsertIfNew inserts the item unless one with the same
	// (channel, external id) already exists. Returns true when inserted.
	InsertIfNew(ctx context.Context, item *models.QueueItem) (bool, error)

	// GetByID retrieves a queue item by its ID.
	GetByID(ctx context.Context, id int64) (*models.QueueItem, error)

	// ListPending retrieves up to limit pending items for a channel,
	// ordered by priority descending then creation time ascending.
	ListPending(ctx context.Context, channelID string, limit int) ([]*models.QueueItem, error)

	// List retrieves items matching the given filters.
	List(ctx context.Context, filters QueueFilters) ([]*models.QueueItem, error)

	// TransitionStatus atomically moves an item from one status to another.
	// Returns false when the item was not in the expected status (a racing
	// worker already claimed it).
	TransitionStatus(ctx context.Context, id int64, from, to string) (bool, error)
}

// QueueFilters contains filter options for querying queue items.
type QueueFilters struct {
	ChannelID string
	Status    string
	Limit     int
}

// RuleRepository defines the secondary port for rule persistence.
type RuleRepository interface {
	// Create persists a new rule.
	Create(ctx context.Context, rule *models.Rule) error

	// GetByID retrieves a rule by its ID.
	GetByID(ctx context.Context, id string) (*models.Rule, error)

	// ListEnabled retrieves the enabled rules for a channel ordered by
	// priority descending. This ordering is the first-match tie-break.
	ListEnabled(ctx context.Context, channelID string) ([]*models.Rule, error)

	// List retrieves rules matching the given filters.
	List(ctx context.Context, filters RuleFilters) ([]*models.Rule, error)

	// SetEnabled enables or disables a rule.
	SetEnabled(ctx context.Context, id string, enabled bool) error

	// UpdateABTests persists reweighted A/B test definitions for a rule.
	UpdateABTests(ctx context.Context, id string, tests map[string][]models.Variant) error

	// GetNextID returns the next available rule ID.
	GetNextID(ctx context.Context) (string, error)
}

// RuleFilters contains filter options for querying rules.
type RuleFilters struct {
	ChannelID string
	Enabled   *bool
	Limit     int
}

// ApprovalRepository defines the secondary port for approval persistence.
type ApprovalRepository interface {
	// Create persists a new approval entry.
	Create(ctx context.Context, entry *models.ApprovalEntry) error

	// GetByID retrieves an approval entry by its ID.
	GetByID(ctx context.Context, id string) (*models.ApprovalEntry, error)

	// ListPending retrieves pending entries ordered by priority descending
	// then age ascending, optionally scoped to one channel.
	ListPending(ctx context.Context, channelID string, limit int) ([]*models.ApprovalEntry, error)

	// BulkApprove atomically transitions the given pending entries to
	// approved, recording the approver and reason. Returns the IDs that
	// actually transitioned.
	BulkApprove(ctx context.Context, ids []string, approvedBy, reason string) ([]string, error)

	// Reject atomically transitions a pending entry to rejected.
	// Returns false when the entry was not pending.
	Reject(ctx context.Context, id, rejectedBy, reason string) (bool, error)

	// AutoApproveExpired transitions every pending entry whose deadline has
	// passed to auto_approved and returns the IDs that transitioned.
	// Already-transitioned entries are not selected, so repeated sweeps are
	// idempotent.
	AutoApproveExpired(ctx context.Context, now time.Time) ([]string, error)

	// GetNextID returns the next available approval ID.
	GetNextID(ctx context.Context) (string, error)
}

// ExecutionLogRepository defines the secondary port for the append-only
// execution log.
type ExecutionLogRepository interface {
	// Append writes one execution record and fills in its assigned ID.
	Append(ctx context.Context, record *models.ExecutionRecord) error

	// List retrieves records matching the given filters, newest first.
	List(ctx context.Context, filters ExecutionFilters) ([]*models.ExecutionRecord, error)

	// DailyResponseCounts aggregates respond dispatches per rule per day
	// within the window.
	DailyResponseCounts(ctx context.Context, since time.Time) ([]DailyCount, error)

	// CountByOutcome counts records per outcome within the window.
	CountByOutcome(ctx context.Context, since time.Time) (map[string]int64, error)
}

// ExecutionFilters contains filter options for querying the execution log.
type ExecutionFilters struct {
	ChannelID string
	RuleID    string
	Outcome   string
	Limit     int
}

// DailyCount is one (day, rule) aggregate bucket.
type DailyCount struct {
	Day    string // YYYY-MM-DD
	RuleID string
	Count  int64
}

// MetricRepository defines the secondary port for outcome metric aggregates
// and feedback events.
type MetricRepository interface {
	// RecordImpression increments the impression counter for a variant.
	RecordImpression(ctx context.Context, ruleID, testID, variantID string) error

	// RecordConversion increments the conversion counter for a variant and
	// appends a conversion feedback event.
	RecordConversion(ctx context.Context, ruleID, testID, variantID string) error

	// RecordEngagement folds one engagement sample into a variant's
	// aggregates and appends an engagement feedback event.
	RecordEngagement(ctx context.Context, ruleID, testID, variantID string, value float64) error

	// AppendFeedback appends a feedback event without touching aggregates.
	AppendFeedback(ctx context.Context, event *models.FeedbackEvent) error

	// GetByRule retrieves all variant aggregates for a rule.
	GetByRule(ctx context.Context, ruleID string) ([]*models.OutcomeMetric, error)

	// DailyFeedbackCounts aggregates feedback events of one kind per rule
	// per day within the window.
	DailyFeedbackCounts(ctx context.Context, kind string, since time.Time) ([]DailyCount, error)
}
