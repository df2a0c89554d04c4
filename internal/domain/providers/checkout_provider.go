package providers

import (
	"context"

	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/entities"
)

// ScriptLoader fetches the third-party checkout script. Implementations load it
// at most once per process; concurrent callers share the same in-flight load.
type ScriptLoader interface {
	Load(ctx context.Context) ([]byte, error)
}

// CheckoutProvider opens the checkout overlay and waits for it to finish
type CheckoutProvider interface {
	Collect(ctx context.Context, session entities.CheckoutSession) (*entities.CheckoutResult, error)
}

// LateCheckoutHandler takes over an overlay outcome that arrives after Collect
// stopped waiting for it
type LateCheckoutHandler func(ctx context.Context, session entities.CheckoutSession, result entities.CheckoutResult) (*entities.PaymentResult, error)
