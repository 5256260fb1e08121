package httpapi

import (
	"context"
	"log/slog"

	"github.com/example/responder/internal/models"
	"github.com/example/responder/internal/ports/secondary"
)

// WebhookNotifier pushes urgent approval entries to an alerting webhook.
type WebhookNotifier struct {
	client
}

var _ secondary.NotificationSink = (*WebhookNotifier)(nil)

// NewWebhookNotifier creates a webhook sink.
func NewWebhookNotifier(baseURL string) *WebhookNotifier {
	return &WebhookNotifier{client: newClient(baseURL)}
}

// NotifyUrgent posts the urgent entries to the webhook.
func (n *WebhookNotifier) NotifyUrgent(ctx context.Context, entries []*models.ApprovalEntry) error {
	type entry struct {
		ID        string `json:"id"`
		ChannelID string `json:"channel_id"`
		ActionRef string `json:"action_ref"`
		Priority  int    `json:"priority"`
	}

	payload := struct {
		Entries []entry `json:"entries"`
	}{}
	for _, e := range entries {
		payload.Entries = append(payload.Entries, entry{
			ID:        e.ID,
			ChannelID: e.ChannelID,
			ActionRef: e.ActionRef,
			Priority:  e.Priority,
		})
	}

	return n.post(ctx, "/notify/urgent", payload, nil)
}

// LogNotifier is the fallback sink used when no webhook is configured: urgent
// entries surface in the logs and nowhere else.
type LogNotifier struct {
	logger *slog.Logger
}

var _ secondary.NotificationSink = (*LogNotifier)(nil)

// NewLogNotifier creates a log-only sink.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// NotifyUrgent logs each urgent entry. It never fails.
func (n *LogNotifier) NotifyUrgent(ctx context.Context, entries []*models.ApprovalEntry) error {
	for _, e := range entries {
		n.logger.Warn("urgent approval pending",
			"approval", e.ID, "channel", e.ChannelID, "priority", e.Priority)
	}
	return nil
}
