package handlers

import (
	"context"

	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/providers"
)

// flagConfirmer answers a confirmation with the value the browser already sent
type flagConfirmer bool

func (f flagConfirmer) Confirm(context.Context, string) (bool, error) {
	return bool(f), nil
}

// confirmerFor returns nil when the browser has not answered yet, so the
// action is rejected with the prompt to show
func confirmerFor(confirmed *bool) providers.Confirmer {
	if confirmed == nil {
		return nil
	}
	return flagConfirmer(*confirmed)
}
