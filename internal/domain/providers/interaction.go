package providers

import (
	"context"

	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/entities"
)

// Confirmer asks the user to accept a destructive action
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// FilePicker lets the user choose a file. A nil file with a nil error means nothing was picked.
type FilePicker interface {
	Pick(ctx context.Context, accept entities.MimeFilter) (*entities.PickedFile, error)
}

// Notifier delivers user-visible notifications
type Notifier interface {
	Notify(ctx context.Context, notification *entities.Notification)
}
