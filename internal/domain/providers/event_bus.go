package providers

import (
	"context"

	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to notifications
type EventBus interface {
	// Publish publishes a notification to all subscribers of the channel
	Publish(ctx context.Context, channel string, notification *entities.Notification) error

	// Subscribe subscribes to notifications on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.Notification, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannelNotificationsPrefix is the prefix for per-session notification channels
const EventChannelNotificationsPrefix = "notifications:"

// GetNotificationChannel returns the channel name for a session
func GetNotificationChannel(sessionID string) string {
	return EventChannelNotificationsPrefix + sessionID
}
