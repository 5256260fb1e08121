package httpapi

import (
	"context"

	"github.com/example/responder/internal/ports/secondary"
)

// Classifier delegates text classification to the inference service.
type Classifier struct {
	client
}

var _ secondary.Classifier = (*Classifier)(nil)

// NewClassifier creates a classifier client.
func NewClassifier(baseURL string) *Classifier {
	return &Classifier{client: newClient(baseURL)}
}

// Classify sends the text for labeling.
func (c *Classifier) Classify(ctx context.Context, text string) (secondary.Classification, error) {
	var resp struct {
		Label    string   `json:"label"`
		Keywords []string `json:"keywords"`
		Language string   `json:"language"`
	}
	if err := c.post(ctx, "/classify", map[string]any{"text": text}, &resp); err != nil {
		return secondary.Classification{}, err
	}
	return secondary.Classification{
		Label:    resp.Label,
		Keywords: resp.Keywords,
		Language: resp.Language,
	}, nil
}
