package entities

import (
	"time"

	"github.com/google/uuid"
)

// Severity of a user-visible notification
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityError   Severity = "error"
)

// NotificationKind tells the front-end how to surface a notification
type NotificationKind string

const (
	// NotificationToast is dismissible and non-blocking
	NotificationToast NotificationKind = "toast"
	// NotificationAlert blocks until the user dismisses it
	NotificationAlert NotificationKind = "alert"
	// NotificationCheckoutOpen asks the front-end to open the checkout overlay
	NotificationCheckoutOpen NotificationKind = "checkout.open"
	// NotificationDashboardRefreshed tells the front-end a refetch has completed
	NotificationDashboardRefreshed NotificationKind = "dashboard.refreshed"
)

// Notification is a message delivered to one user session
type Notification struct {
	ID        string                 `json:"id"`
	SessionID string                 `json:"session_id"`
	Kind      NotificationKind       `json:"kind"`
	Severity  Severity               `json:"severity"`
	Title     string                 `json:"title,omitempty"`
	Message   string                 `json:"message"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// NewNotification creates a notification with a fresh id
func NewNotification(sessionID string, kind NotificationKind, severity Severity, message string) *Notification {
	return &Notification{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Kind:      kind,
		Severity:  severity,
		Message:   message,
		CreatedAt: time.Now(),
	}
}

// Blocking reports whether the user must acknowledge the notification
func (n *Notification) Blocking() bool {
	return n.Kind == NotificationAlert || n.Kind == NotificationCheckoutOpen
}
