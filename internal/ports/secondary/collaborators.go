package secondary

import (
	"context"
	"time"

	"github.com/example/responder/internal/models"
)

// ContentRef identifies one piece of parent content (e.g. a post or video)
// whose child interactions are polled.
type ContentRef struct {
	ID          string
	Title       string
	PublishedAt time.Time
}

// RawItem is one child interaction as returned by the platform, before
// classification and enqueueing.
type RawItem struct {
	ExternalID   string
	Body         string
	AuthorID     string
	AuthorStatus string
	PublishedAt  time.Time
}

// PostResult is the outcome of publishing a response.
type PostResult struct {
	Success    bool
	ExternalID string
}

// SourceConnector defines the secondary port for the platform the engine
// polls and acts on. Implementations wrap the concrete platform API.
type SourceConnector interface {
	// ListNewParentContent returns parent content published since the given time.
	ListNewParentContent(ctx context.Context, channelID string, since time.Time) ([]ContentRef, error)

	// ListNewChildItems returns the interactions attached to one piece of content.
	ListNewChildItems(ctx context.Context, channelID string, content ContentRef) ([]RawItem, error)

	// PostResponse publishes a response to an item.
	PostResponse(ctx context.Context, channelID, externalID, text string) (PostResult, error)

	// DeleteItem removes an item from the platform.
	DeleteItem(ctx context.Context, channelID, externalID string) error
}

// Classification is the opaque classifier output rules match against.
type Classification struct {
	Label    string
	Keywords []string
	Language string
}

// Classifier defines the secondary port for text classification.
type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}

// TemplateRenderer defines the secondary port for rendering a response
// variant into platform-ready text.
type TemplateRenderer interface {
	Render(ctx context.Context, templateRef string, item *models.QueueItem) (string, error)
}

// DeleteDecision is the moderation collaborator's structured verdict.
type DeleteDecision struct {
	RecommendedDelete bool
	Confidence        float64
	Threshold         float64
	Legitimate        bool
	Reason            string
}

// SafetyModeration defines the secondary port for the delete safety gate.
type SafetyModeration interface {
	EvaluateDeleteCriteria(ctx context.Context, item *models.QueueItem, criteria *models.DeleteConfig) (DeleteDecision, error)
}

// NotificationSink defines the secondary port for urgent-approval alerts.
// Delivery is fire-and-forget: failures must not affect queue state.
type NotificationSink interface {
	NotifyUrgent(ctx context.Context, entries []*models.ApprovalEntry) error
}
