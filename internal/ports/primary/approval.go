// Package primary defines the primary ports (driving interfaces) exposed by
// the application layer to the CLI and daemon.
package primary

import (
	"context"
	"time"

	"github.com/example/responder/internal/models"
)

// AddApprovalRequest carries everything needed to queue a proposed action
// for human sign-off.
type AddApprovalRequest struct {
	ChannelID     string
	ActionRef     string
	Payload       models.ApprovalPayload
	Priority      int
	AutoApproveAt *time.Time
}

// BulkApproveRequest approves a batch of pending entries.
type BulkApproveRequest struct {
	IDs        []string
	ApprovedBy string
	Reason     string
}

// ApprovalService is the primary port for the human-approval queue.
type ApprovalService interface {
	// Add queues a proposed action and fires an urgency notification when
	// the priority crosses the configured threshold.
	Add(ctx context.Context, req AddApprovalRequest) (*models.ApprovalEntry, error)

	// GetPending lists pending entries, urgent first, oldest first within
	// a priority tier.
	GetPending(ctx context.Context, channelID string, limit int) ([]*models.ApprovalEntry, error)

	// BulkApprove transitions the given pending entries to approved and
	// returns how many transitioned.
	BulkApprove(ctx context.Context, req BulkApproveRequest) (int, error)

	// Reject transitions a pending entry to rejected.
	Reject(ctx context.Context, id, rejectedBy, reason string) error

	// AutoApproveExpired sweeps pending entries past their deadline into
	// auto_approved and returns how many transitioned.
	AutoApproveExpired(ctx context.Context) (int, error)
}
