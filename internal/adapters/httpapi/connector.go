package httpapi

import (
	"context"
	"time"

	"github.com/example/responder/internal/ports/secondary"
)

// Connector talks to the platform gateway service that proxies the concrete
// social platform APIs.
type Connector struct {
	client
}

var _ secondary.SourceConnector = (*Connector)(nil)

// NewConnector creates a reusable platform connector.
func NewConnector(baseURL string) *Connector {
	return &Connector{client: newClient(baseURL)}
}

// ListNewParentContent returns content published on the channel since the
// given time.
func (c *Connector) ListNewParentContent(ctx context.Context, channelID string, since time.Time) ([]secondary.ContentRef, error) {
	payload := map[string]any{
		"channel_id": channelID,
		"since":      since.UTC().Format(time.RFC3339),
	}

	var resp struct {
		Content []struct {
			ID          string    `json:"id"`
			Title       string    `json:"title"`
			PublishedAt time.Time `json:"published_at"`
		} `json:"content"`
	}
	if err := c.post(ctx, "/content/list", payload, &resp); err != nil {
		return nil, err
	}

	refs := make([]secondary.ContentRef, len(resp.Content))
	for i, item := range resp.Content {
		refs[i] = secondary.ContentRef{
			ID:          item.ID,
			Title:       item.Title,
			PublishedAt: item.PublishedAt,
		}
	}
	return refs, nil
}

// ListNewChildItems returns the interactions attached to one piece of content.
func (c *Connector) ListNewChildItems(ctx context.Context, channelID string, content secondary.ContentRef) ([]secondary.RawItem, error) {
	payload := map[string]any{
		"channel_id": channelID,
		"content_id": content.ID,
	}

	var resp struct {
		Items []struct {
			ExternalID   string    `json:"external_id"`
			Body         string    `json:"body"`
			AuthorID     string    `json:"author_id"`
			AuthorStatus string    `json:"author_status"`
			PublishedAt  time.Time `json:"published_at"`
		} `json:"items"`
	}
	if err := c.post(ctx, "/items/list", payload, &resp); err != nil {
		return nil, err
	}

	items := make([]secondary.RawItem, len(resp.Items))
	for i, item := range resp.Items {
		items[i] = secondary.RawItem{
			ExternalID:   item.ExternalID,
			Body:         item.Body,
			AuthorID:     item.AuthorID,
			AuthorStatus: item.AuthorStatus,
			PublishedAt:  item.PublishedAt,
		}
	}
	return items, nil
}

// PostResponse publishes a response to an item on the platform.
func (c *Connector) PostResponse(ctx context.Context, channelID, externalID, text string) (secondary.PostResult, error) {
	payload := map[string]any{
		"channel_id":  channelID,
		"external_id": externalID,
		"text":        text,
	}

	var resp struct {
		Success    bool   `json:"success"`
		ExternalID string `json:"external_id"`
	}
	if err := c.post(ctx, "/items/respond", payload, &resp); err != nil {
		return secondary.PostResult{}, err
	}
	return secondary.PostResult{Success: resp.Success, ExternalID: resp.ExternalID}, nil
}

// DeleteItem removes an item from the platform.
func (c *Connector) DeleteItem(ctx context.Context, channelID, externalID string) error {
	payload := map[string]any{
		"channel_id":  channelID,
		"external_id": externalID,
	}
	return c.post(ctx, "/items/delete", payload, nil)
}
