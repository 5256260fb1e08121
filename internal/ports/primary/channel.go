package primary

import (
	"context"

	"github.com/example/responder/internal/models"
)

// CreateChannelRequest carries the fields for a new monitored channel.
type CreateChannelRequest struct {
	Name                string
	Platform            string
	PollingEnabled      bool
	PollIntervalMinutes int
}

// ChannelService is the primary port for channel management.
type ChannelService interface {
	// CreateChannel validates and persists a new channel.
	CreateChannel(ctx context.Context, req CreateChannelRequest) (*models.Channel, error)

	// GetChannel retrieves a channel by ID.
	GetChannel(ctx context.Context, id string) (*models.Channel, error)

	// ListChannels lists all channels.
	ListChannels(ctx context.Context) ([]*models.Channel, error)
}
