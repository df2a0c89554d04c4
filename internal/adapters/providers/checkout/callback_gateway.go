package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/entities"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/providers"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/Telehealthmarketplace/backend/pkg/errors"
)

const (
	// DefaultCallbackTimeout is how long a browser has to finish the overlay
	DefaultCallbackTimeout = 15 * time.Minute
	// DefaultLateWindow is how long an abandoned checkout still accepts a callback
	DefaultLateWindow = 24 * time.Hour
)

var errLateWithoutHandler = errors.New("checkout succeeded after it was abandoned and no late handler is set")

type pendingCheckout struct {
	session entities.CheckoutSession
	result  chan entities.CheckoutResult
}

// abandonedCheckout remembers a checkout nobody is waiting on anymore so a
// late success can still be verified
type abandonedCheckout struct {
	session entities.CheckoutSession
	expires time.Time
}

// CallbackGateway collects payments through the browser. Collect asks the
// session's front-end to open the overlay and then waits for Resolve to be
// called with the overlay's outcome. No answer within the timeout, or the
// caller going away, counts as a dismissal. The overlay may still complete
// afterwards; such a late success is handed to the late handler.
type CallbackGateway struct {
	notifier     providers.Notifier
	timeout      time.Duration
	lateWindow   time.Duration
	merchantName string
	onLate       providers.LateCheckoutHandler
	now          func() time.Time

	mu        sync.Mutex
	pending   map[string]*pendingCheckout
	abandoned map[string]*abandonedCheckout
}

var _ providers.CheckoutProvider = (*CallbackGateway)(nil)

// NewCallbackGateway creates a new callback gateway
func NewCallbackGateway(notifier providers.Notifier, timeout time.Duration, merchantName string) *CallbackGateway {
	if timeout <= 0 {
		timeout = DefaultCallbackTimeout
	}
	return &CallbackGateway{
		notifier:     notifier,
		timeout:      timeout,
		lateWindow:   DefaultLateWindow,
		merchantName: merchantName,
		now:          time.Now,
		pending:      make(map[string]*pendingCheckout),
		abandoned:    make(map[string]*abandonedCheckout),
	}
}

// WithLateWindow overrides how long abandoned checkouts accept callbacks
func (g *CallbackGateway) WithLateWindow(d time.Duration) *CallbackGateway {
	if d > 0 {
		g.lateWindow = d
	}
	return g
}

// OnLateResult sets the handler for successes reported after Collect returned.
// Without one, late successes are rejected.
func (g *CallbackGateway) OnLateResult(h providers.LateCheckoutHandler) {
	g.mu.Lock()
	g.onLate = h
	g.mu.Unlock()
}

// Collect implements providers.CheckoutProvider
func (g *CallbackGateway) Collect(ctx context.Context, session entities.CheckoutSession) (*entities.CheckoutResult, error) {
	orderID := session.Intent.OrderID
	p := &pendingCheckout{session: session, result: make(chan entities.CheckoutResult, 1)}

	g.mu.Lock()
	if _, exists := g.pending[orderID]; exists {
		g.mu.Unlock()
		return nil, apperrors.NewConflictError("This payment is already open")
	}
	g.pending[orderID] = p
	delete(g.abandoned, orderID)
	g.mu.Unlock()

	g.notifier.Notify(ctx, g.openNotification(session))

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	logger := observability.LoggerFromContext(ctx)
	select {
	case result := <-p.result:
		g.finish(orderID, nil)
		return &result, nil
	case <-timer.C:
		logger.Info().Str("order_id", orderID).Dur("timeout", g.timeout).Msg("checkout callback timed out")
	case <-ctx.Done():
		logger.Info().Err(ctx.Err()).Str("order_id", orderID).Msg("checkout caller went away")
	}

	// a callback may have landed between the wake-up and the lock
	if result, ok := g.finish(orderID, p); ok {
		return &result, nil
	}
	return &entities.CheckoutResult{Outcome: entities.CheckoutDismissed}, nil
}

// finish removes the pending entry. With abandon set, an outcome that raced in
// is returned, otherwise the checkout is kept for late callbacks.
func (g *CallbackGateway) finish(orderID string, abandon *pendingCheckout) (entities.CheckoutResult, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.pending, orderID)
	if abandon == nil {
		return entities.CheckoutResult{}, false
	}
	select {
	case result := <-abandon.result:
		return result, true
	default:
	}
	g.pruneLocked()
	g.abandoned[orderID] = &abandonedCheckout{session: abandon.session, expires: g.now().Add(g.lateWindow)}
	return entities.CheckoutResult{}, false
}

func (g *CallbackGateway) pruneLocked() {
	now := g.now()
	for id, a := range g.abandoned {
		if now.After(a.expires) {
			delete(g.abandoned, id)
		}
	}
}

func (g *CallbackGateway) openNotification(session entities.CheckoutSession) *entities.Notification {
	n := entities.NewNotification(session.SessionID, entities.NotificationCheckoutOpen, entities.SeverityInfo, "Complete your payment")
	n.Payload = map[string]interface{}{
		"key":         session.Key,
		"order_id":    session.Intent.OrderID,
		"amount":      session.Intent.Amount,
		"currency":    session.Intent.Currency,
		"name":        g.merchantName,
		"description": session.Description,
		"prefill":     session.Prefill,
		"script_url":  "/assets/checkout.js",
	}
	return n
}

// Resolve delivers the overlay outcome for a checkout. Only the session that
// opened the checkout may resolve it, and only once. A success for a checkout
// Collect already gave up on goes to the late handler.
func (g *CallbackGateway) Resolve(ctx context.Context, sessionID, orderID string, result entities.CheckoutResult) error {
	g.mu.Lock()
	if p, ok := g.pending[orderID]; ok && p.session.SessionID == sessionID {
		defer g.mu.Unlock()
		// sent under the lock so Collect's abandon path cannot miss it
		select {
		case p.result <- result:
			return nil
		default:
			return apperrors.NewConflictError("This payment has already been completed")
		}
	}

	g.pruneLocked()
	a, ok := g.abandoned[orderID]
	if !ok || a.session.SessionID != sessionID {
		g.mu.Unlock()
		return apperrors.NewNotFoundError("No open payment for this order")
	}
	if result.Outcome != entities.CheckoutSucceeded {
		g.mu.Unlock()
		return nil
	}
	delete(g.abandoned, orderID)
	onLate := g.onLate
	g.mu.Unlock()

	observability.LoggerFromContext(ctx).Warn().
		Str("order_id", orderID).
		Msg("checkout succeeded after it was abandoned")
	if onLate == nil {
		return apperrors.NewPaymentAmbiguousError(errLateWithoutHandler)
	}
	_, err := onLate(ctx, a.session, result)
	return err
}

// Pending reports how many checkouts are waiting for a callback
func (g *CallbackGateway) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}
