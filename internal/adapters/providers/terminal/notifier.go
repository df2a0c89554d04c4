package terminal

import (
	"context"
	"fmt"

	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/entities"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/providers"
)

// Notifier prints notifications as terminal lines. Alerts are framed so they
// stand out; refresh events are not shown.
type Notifier struct {
	prompter *Prompter
}

var _ providers.Notifier = (*Notifier)(nil)

// NewNotifier creates a terminal notifier
func NewNotifier(prompter *Prompter) *Notifier {
	return &Notifier{prompter: prompter}
}

// Notify implements providers.Notifier
func (n *Notifier) Notify(_ context.Context, notification *entities.Notification) {
	if notification == nil {
		return
	}
	switch notification.Kind {
	case entities.NotificationDashboardRefreshed, entities.NotificationCheckoutOpen:
		return
	case entities.NotificationAlert:
		title := notification.Title
		if title == "" {
			title = "Notice"
		}
		n.prompter.Println(fmt.Sprintf("!! %s: %s", title, notification.Message))
	default:
		n.prompter.Println(fmt.Sprintf("[%s] %s", notification.Severity, notification.Message))
	}
}
