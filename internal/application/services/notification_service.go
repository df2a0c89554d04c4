package services

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/entities"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/providers"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/infrastructure/observability"
)

// NotificationService delivers notifications to a session's live stream.
// Every notification is logged; publishing is skipped when no bus is configured.
type NotificationService struct {
	bus providers.EventBus
}

// NewNotificationService creates a new notification service
func NewNotificationService(bus providers.EventBus) *NotificationService {
	return &NotificationService{bus: bus}
}

// Notify implements providers.Notifier
func (n *NotificationService) Notify(ctx context.Context, notification *entities.Notification) {
	if notification == nil {
		return
	}
	logger := observability.LoggerFromContext(ctx)
	logEvent(logger, notification).
		Str("notification_id", notification.ID).
		Str("kind", string(notification.Kind)).
		Str("session_id", notification.SessionID).
		Msg(notification.Message)

	if n.bus == nil || notification.SessionID == "" {
		return
	}
	channel := providers.GetNotificationChannel(notification.SessionID)
	if err := n.bus.Publish(ctx, channel, notification); err != nil {
		logger.Error().Err(err).Str("channel", channel).Msg("failed to publish notification")
	}
}

func logEvent(logger *zerolog.Logger, n *entities.Notification) *zerolog.Event {
	switch n.Severity {
	case entities.SeverityError:
		return logger.Warn()
	case entities.SeveritySuccess:
		return logger.Info()
	}
	return logger.Debug()
}

// notifyToast sends a dismissible notification
func notifyToast(ctx context.Context, notifier providers.Notifier, sessionID string, severity entities.Severity, message string) {
	if notifier == nil {
		return
	}
	notifier.Notify(ctx, entities.NewNotification(sessionID, entities.NotificationToast, severity, message))
}

// notifyAlert sends a blocking notification
func notifyAlert(ctx context.Context, notifier providers.Notifier, sessionID, title, message string) {
	if notifier == nil {
		return
	}
	n := entities.NewNotification(sessionID, entities.NotificationAlert, entities.SeverityError, message)
	n.Title = title
	notifier.Notify(ctx, n)
}
