package httpapi

import (
	"context"

	"github.com/example/responder/internal/models"
	"github.com/example/responder/internal/ports/secondary"
)

// Renderer asks the template service to turn a template reference and item
// context into platform-ready text.
type Renderer struct {
	client
}

var _ secondary.TemplateRenderer = (*Renderer)(nil)

// NewRenderer creates a renderer client.
func NewRenderer(baseURL string) *Renderer {
	return &Renderer{client: newClient(baseURL)}
}

// Render produces the response text for an item.
func (r *Renderer) Render(ctx context.Context, templateRef string, item *models.QueueItem) (string, error) {
	payload := map[string]any{
		"template_ref": templateRef,
		"channel_id":   item.ChannelID,
		"body":         item.Body,
		"author_id":    item.AuthorID,
	}

	var resp struct {
		Text string `json:"text"`
	}
	if err := r.post(ctx, "/render", payload, &resp); err != nil {
		return "", err
	}
	return resp.Text, nil
}
