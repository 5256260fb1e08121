package models

import "time"

// Queue item status constants.
const (
	ItemStatusPending     = "pending"
	ItemStatusProcessing  = "processing"
	ItemStatusNeedsReview = "needs_review"
	ItemStatusDone        = "done"
)

// QueueItem is a single externally-sourced interaction awaiting automation.
// Items are keyed by (ChannelID, ExternalID) so repeated polling of the same
// upstream content cannot enqueue duplicates.
type QueueItem struct {
	ID             int64
	ChannelID      string
	ExternalID     string
	ContentRef     string
	Body           string
	Classification string
	AuthorID       string
	AuthorStatus   string
	Status         string
	Priority       int
	CreatedAt      time.Time
}
