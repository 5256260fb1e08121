package app

import (
	"context"
	"fmt"

	"github.com/example/responder/internal/models"
	"github.com/example/responder/internal/ports/primary"
	"github.com/example/responder/internal/ports/secondary"
)

// QueueServiceImpl implements the QueueService interface.
type QueueServiceImpl struct {
	queue secondary.QueueRepository
}

// NewQueueService creates a QueueService with injected dependencies.
func NewQueueService(queue secondary.QueueRepository) *QueueServiceImpl {
	return &QueueServiceImpl{queue: queue}
}

// ListItems lists queue items filtered by channel and status.
func (s *QueueServiceImpl) ListItems(ctx context.Context, channelID, status string, limit int) ([]*models.QueueItem, error) {
	items, err := s.queue.List(ctx, secondary.QueueFilters{
		ChannelID: channelID,
		Status:    status,
		Limit:     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list queue items: %w", err)
	}
	return items, nil
}

// GetItem retrieves a queue item by ID.
func (s *QueueServiceImpl) GetItem(ctx context.Context, id int64) (*models.QueueItem, error) {
	return s.queue.GetByID(ctx, id)
}

// Ensure QueueServiceImpl implements the interface
var _ primary.QueueService = (*QueueServiceImpl)(nil)
