package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/responder/internal/core/variant"
	"github.com/example/responder/internal/models"
	"github.com/example/responder/internal/ports/primary"
	"github.com/example/responder/internal/ports/secondary"
)

// ApprovalServiceImpl implements the ApprovalService interface.
type ApprovalServiceImpl struct {
	approvals      secondary.ApprovalRepository
	metrics        secondary.MetricRepository
	notifier       secondary.NotificationSink
	urgentPriority int
	logger         *slog.Logger
	now            func() time.Time
}

// NewApprovalService creates an ApprovalService with injected dependencies.
// Entries at or above urgentPriority trigger the notification sink.
func NewApprovalService(
	approvals secondary.ApprovalRepository,
	metrics secondary.MetricRepository,
	notifier secondary.NotificationSink,
	urgentPriority int,
	logger *slog.Logger,
) *ApprovalServiceImpl {
	return &ApprovalServiceImpl{
		approvals:      approvals,
		metrics:        metrics,
		notifier:       notifier,
		urgentPriority: urgentPriority,
		logger:         logger,
		now:            time.Now,
	}
}

// Add queues a proposed action for human sign-off. Urgent entries fire the
// notification sink best-effort: a notification failure never fails the add.
func (s *ApprovalServiceImpl) Add(ctx context.Context, req primary.AddApprovalRequest) (*models.ApprovalEntry, error) {
	if req.ChannelID == "" {
		return nil, fmt.Errorf("channel id is required")
	}

	payload, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	id, err := s.approvals.GetNextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate approval id: %w", err)
	}

	entry := &models.ApprovalEntry{
		ID:            id,
		ChannelID:     req.ChannelID,
		ActionRef:     req.ActionRef,
		Payload:       string(payload),
		Priority:      req.Priority,
		Status:        models.ApprovalStatusPending,
		Urgent:        req.Priority >= s.urgentPriority,
		AutoApproveAt: req.AutoApproveAt,
		CreatedAt:     s.now(),
	}

	if err := s.approvals.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create approval: %w", err)
	}

	if entry.Urgent {
		if err := s.notifier.NotifyUrgent(ctx, []*models.ApprovalEntry{entry}); err != nil {
			s.logger.Warn("urgent notification failed", "approval", entry.ID, "error", err)
		}
	}

	return entry, nil
}

// GetPending lists pending entries, urgent first, oldest first within a tier.
func (s *ApprovalServiceImpl) GetPending(ctx context.Context, channelID string, limit int) ([]*models.ApprovalEntry, error) {
	entries, err := s.approvals.ListPending(ctx, channelID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending approvals: %w", err)
	}
	return entries, nil
}

// BulkApprove transitions the given pending entries to approved. One feedback
// event is emitted per approved entry, best-effort: a failed event write does
// not undo the approval.
func (s *ApprovalServiceImpl) BulkApprove(ctx context.Context, req primary.BulkApproveRequest) (int, error) {
	if len(req.IDs) == 0 {
		return 0, nil
	}
	if req.ApprovedBy == "" {
		return 0, fmt.Errorf("approved-by is required")
	}

	approved, err := s.approvals.BulkApprove(ctx, req.IDs, req.ApprovedBy, req.Reason)
	if err != nil {
		return 0, fmt.Errorf("failed to approve: %w", err)
	}

	for _, id := range approved {
		s.emitApprovalFeedback(ctx, id)
	}

	return len(approved), nil
}

// Reject transitions a pending entry to rejected.
func (s *ApprovalServiceImpl) Reject(ctx context.Context, id, rejectedBy, reason string) error {
	ok, err := s.approvals.Reject(ctx, id, rejectedBy, reason)
	if err != nil {
		return fmt.Errorf("failed to reject: %w", err)
	}
	if !ok {
		return fmt.Errorf("approval %s is not pending", id)
	}
	return nil
}

// AutoApproveExpired sweeps pending entries past their deadline into
// auto_approved. Safe to call repeatedly.
func (s *ApprovalServiceImpl) AutoApproveExpired(ctx context.Context) (int, error) {
	ids, err := s.approvals.AutoApproveExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep approvals: %w", err)
	}

	if len(ids) > 0 {
		s.logger.Info("auto-approved expired entries", "count", len(ids))
		for _, id := range ids {
			s.emitApprovalFeedback(ctx, id)
		}
	}

	return len(ids), nil
}

// emitApprovalFeedback appends one approval feedback event for the entry's
// rule and variant, when the payload carries them.
func (s *ApprovalServiceImpl) emitApprovalFeedback(ctx context.Context, id string) {
	entry, err := s.approvals.GetByID(ctx, id)
	if err != nil {
		s.logger.Warn("failed to load approval for feedback", "approval", id, "error", err)
		return
	}

	var payload models.ApprovalPayload
	if err := json.Unmarshal([]byte(entry.Payload), &payload); err != nil || payload.RuleID == "" {
		return
	}

	testID, variantID := variant.Split(payload.VariantKey)
	event := &models.FeedbackEvent{
		RuleID:    payload.RuleID,
		TestID:    testID,
		VariantID: variantID,
		Kind:      models.FeedbackApproval,
		Value:     1,
	}
	if err := s.metrics.AppendFeedback(ctx, event); err != nil {
		s.logger.Warn("failed to append approval feedback", "approval", id, "error", err)
	}
}

// Ensure ApprovalServiceImpl implements the interface
var _ primary.ApprovalService = (*ApprovalServiceImpl)(nil)
