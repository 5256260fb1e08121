package httpapi

import (
	"context"

	"github.com/example/responder/internal/models"
	"github.com/example/responder/internal/ports/secondary"
)

// Moderation delegates the delete safety gate to the moderation service.
type Moderation struct {
	client
}

var _ secondary.SafetyModeration = (*Moderation)(nil)

// NewModeration creates a moderation client.
func NewModeration(baseURL string) *Moderation {
	return &Moderation{client: newClient(baseURL)}
}

// EvaluateDeleteCriteria submits the item and the rule's delete criteria and
// returns the service's structured verdict.
func (m *Moderation) EvaluateDeleteCriteria(ctx context.Context, item *models.QueueItem, criteria *models.DeleteConfig) (secondary.DeleteDecision, error) {
	payload := map[string]any{
		"body":           item.Body,
		"author_id":      item.AuthorID,
		"min_confidence": criteria.MinConfidence,
		"categories":     criteria.Categories,
	}

	var resp struct {
		RecommendedDelete bool    `json:"recommended_delete"`
		Confidence        float64 `json:"confidence"`
		Threshold         float64 `json:"threshold"`
		Legitimate        bool    `json:"legitimate"`
		Reason            string  `json:"reason"`
	}
	if err := m.post(ctx, "/moderation/delete-check", payload, &resp); err != nil {
		return secondary.DeleteDecision{}, err
	}

	return secondary.DeleteDecision{
		RecommendedDelete: resp.RecommendedDelete,
		Confidence:        resp.Confidence,
		Threshold:         resp.Threshold,
		Legitimate:        resp.Legitimate,
		Reason:            resp.Reason,
	}, nil
}
