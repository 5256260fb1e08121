package app

import (
	"context"
	"fmt"
	"time"

	"github.com/example/responder/internal/models"
	"github.com/example/responder/internal/ports/primary"
	"github.com/example/responder/internal/ports/secondary"
)

// defaultPollIntervalMinutes applies when a channel is created with polling
// enabled but no interval.
const defaultPollIntervalMinutes = 5

// ChannelServiceImpl implements primary.ChannelService.
type ChannelServiceImpl struct {
	channels secondary.ChannelRepository
	now      func() time.Time
}

// NewChannelService creates a channel service with injected dependencies.
func NewChannelService(channels secondary.ChannelRepository) *ChannelServiceImpl {
	return &ChannelServiceImpl{
		channels: channels,
		now:      time.Now,
	}
}

// CreateChannel validates and persists a new channel.
func (s *ChannelServiceImpl) CreateChannel(ctx context.Context, req primary.CreateChannelRequest) (*models.Channel, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("channel name is required")
	}
	if req.Platform == "" {
		return nil, fmt.Errorf("channel platform is required")
	}
	if req.PollIntervalMinutes < 0 {
		return nil, fmt.Errorf("poll interval must not be negative")
	}

	interval := req.PollIntervalMinutes
	if interval == 0 {
		interval = defaultPollIntervalMinutes
	}

	id, err := s.channels.GetNextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get next channel ID: %w", err)
	}

	channel := &models.Channel{
		ID:                  id,
		Name:                req.Name,
		Platform:            req.Platform,
		PollingEnabled:      req.PollingEnabled,
		PollIntervalMinutes: interval,
		CreatedAt:           s.now(),
	}

	if err := s.channels.Create(ctx, channel); err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	return channel, nil
}

// GetChannel retrieves a channel by ID.
func (s *ChannelServiceImpl) GetChannel(ctx context.Context, id string) (*models.Channel, error) {
	return s.channels.GetByID(ctx, id)
}

// ListChannels lists all channels.
func (s *ChannelServiceImpl) ListChannels(ctx context.Context) ([]*models.Channel, error) {
	return s.channels.List(ctx, false)
}

var _ primary.ChannelService = (*ChannelServiceImpl)(nil)
