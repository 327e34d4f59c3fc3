package telemetry

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	NotificationStoryReaction = "story_reaction"
	NotificationStoryMention  = "story_mention"
	NotificationCallIncoming  = "call_incoming"

	notificationsRoutingKey = "notifications."
)

// Notification tells a user that someone acted on their content.
type Notification struct {
	Type        string         `json:"type"`
	RecipientID int            `json:"recipient_id"`
	ActorID     int            `json:"actor_id"`
	OccurredAt  string         `json:"occurred_at"`
	Data        map[string]any `json:"data,omitempty"`
}

// Notifier delivers best-effort user notifications over the event bus.
type Notifier struct {
	publisher Publisher
}

// NewNotifier builds a Notifier publishing through publisher.
func NewNotifier(publisher Publisher) *Notifier {
	return &Notifier{publisher: publisher}
}

// Notify publishes n. Delivery is best effort: errors are logged and reported, never retried.
func (n *Notifier) Notify(ctx context.Context, kind string, recipientID, actorID int, data map[string]any) error {
	if n == nil || n.publisher == nil {
		return nil
	}
	event := Notification{
		Type:        kind,
		RecipientID: recipientID,
		ActorID:     actorID,
		OccurredAt:  time.Now().UTC().Format(time.RFC3339Nano),
		Data:        data,
	}
	err := n.publisher.Publish(ctx, notificationsRoutingKey+kind, event)
	if err != nil {
		log.Warn().Err(err).Str("type", kind).Int("recipient_id", recipientID).Msg("notification publish failed")
	}
	return err
}
