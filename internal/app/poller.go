package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/responder/internal/models"
	"github.com/example/responder/internal/ports/secondary"
)

// defaultPollLookback bounds the first poll of a channel that has never been
// polled before.
const defaultPollLookback = 24 * time.Hour

// Poller ingests new platform interactions into the queue. Ingestion is
// idempotent: items are keyed by (channel, external id) so re-polling the
// same upstream content enqueues nothing new.
type Poller struct {
	channels   secondary.ChannelRepository
	queue      secondary.QueueRepository
	connector  secondary.SourceConnector
	classifier secondary.Classifier
	logger     *slog.Logger
	now        func() time.Time
}

// NewPoller creates a poller with injected dependencies.
func NewPoller(
	channels secondary.ChannelRepository,
	queue secondary.QueueRepository,
	connector secondary.SourceConnector,
	classifier secondary.Classifier,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		channels:   channels,
		queue:      queue,
		connector:  connector,
		classifier: classifier,
		logger:     logger,
		now:        time.Now,
	}
}

// RunTick polls every channel that is due. Channels are independent: one
// channel's failure is logged and the tick moves on to the next.
func (p *Poller) RunTick(ctx context.Context) error {
	channels, err := p.channels.List(ctx, true)
	if err != nil {
		return fmt.Errorf("failed to list channels: %w", err)
	}

	for _, ch := range channels {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !ch.ShouldPoll(p.now()) {
			continue
		}

		enqueued, err := p.PollChannel(ctx, ch)
		if err != nil {
			p.logger.Error("poll failed", "channel", ch.ID, "error", err)
			continue
		}
		p.logger.Info("poll complete", "channel", ch.ID, "enqueued", enqueued)
	}

	return nil
}

// PollChannel fetches recent parent content and its child interactions,
// enqueueing every item not seen before. A failure on one piece of content
// is logged and skipped; sibling content still gets polled.
func (p *Poller) PollChannel(ctx context.Context, ch *models.Channel) (int, error) {
	since := p.now().Add(-defaultPollLookback)
	if ch.LastPolledAt != nil {
		since = *ch.LastPolledAt
	}

	contents, err := p.connector.ListNewParentContent(ctx, ch.ID, since)
	if err != nil {
		return 0, fmt.Errorf("failed to list content: %w", err)
	}

	enqueued := 0
	for _, content := range contents {
		raws, err := p.connector.ListNewChildItems(ctx, ch.ID, content)
		if err != nil {
			p.logger.Warn("failed to list items for content",
				"channel", ch.ID, "content", content.ID, "error", err)
			continue
		}

		for _, raw := range raws {
			item := &models.QueueItem{
				ChannelID:    ch.ID,
				ExternalID:   raw.ExternalID,
				ContentRef:   content.ID,
				Body:         raw.Body,
				AuthorID:     raw.AuthorID,
				AuthorStatus: raw.AuthorStatus,
				Status:       models.ItemStatusPending,
			}

			// Classification failure is tolerated; rules that do not
			// condition on classification still see the item.
			if c, err := p.classifier.Classify(ctx, raw.Body); err != nil {
				p.logger.Warn("classification failed",
					"channel", ch.ID, "external_id", raw.ExternalID, "error", err)
			} else {
				item.Classification = c.Label
			}

			inserted, err := p.queue.InsertIfNew(ctx, item)
			if err != nil {
				p.logger.Warn("failed to enqueue item",
					"channel", ch.ID, "external_id", raw.ExternalID, "error", err)
				continue
			}
			if inserted {
				enqueued++
			}
		}
	}

	if err := p.channels.SetLastPolled(ctx, ch.ID, p.now()); err != nil {
		return enqueued, fmt.Errorf("failed to record poll time: %w", err)
	}

	return enqueued, nil
}
